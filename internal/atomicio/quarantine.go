package atomicio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Quarantine moves a malformed file aside into <umsDir>/quarantine/ with a
// timestamp suffix instead of deleting it outright, so a corrupted trigger
// or result file can still be inspected after the watcher has moved on.
func Quarantine(umsDir, filePath string) (string, error) {
	quarantineDir := filepath.Join(umsDir, "quarantine")
	if err := os.MkdirAll(quarantineDir, 0755); err != nil {
		return "", fmt.Errorf("create quarantine dir: %w", err)
	}

	baseName := filepath.Base(filePath)
	timestamp := time.Now().Format("20060102T150405")
	dest := filepath.Join(quarantineDir, fmt.Sprintf("%s.%s.corrupt", baseName, timestamp))

	if err := os.Rename(filePath, dest); err != nil {
		return "", fmt.Errorf("move to quarantine: %w", err)
	}
	return dest, nil
}

// DiscardMalformed removes a trigger file that failed to parse. A malformed
// trigger is treated as if it were never written: the watcher logs the
// failure and clears the file so a stuck hook process isn't left waiting on
// a result that will never arrive.
func DiscardMalformed(filePath string) error {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("discard malformed file %s: %w", filePath, err)
	}
	return nil
}
