package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

// requestIDPattern matches the shape produced by NewRequestID: a decimal
// millisecond timestamp and 8 hex characters of randomness. The timestamp
// component alone cannot disambiguate two triggers created within the same
// millisecond, so the random suffix carries the collision resistance.
var requestIDPattern = regexp.MustCompile(`^req_[0-9]{13}_[0-9a-f]{8}$`)

// NewRequestID generates an opaque, URL-safe request identifier that is
// collision-resistant across a process lifetime and across two triggers
// created within the same millisecond.
func NewRequestID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate request id: %w", err)
	}
	return fmt.Sprintf("req_%013d_%s", time.Now().UnixMilli(), hex.EncodeToString(buf)), nil
}

// ValidID reports whether id has the shape produced by NewRequestID. Hook
// scripts and watchers never need to parse a request id's contents beyond
// this shape check.
func ValidID(id string) bool {
	return requestIDPattern.MatchString(id)
}
