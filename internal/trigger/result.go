package trigger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/vitruvius-tools/ums-hooks/internal/atomicio"
	"github.com/vitruvius-tools/ums-hooks/internal/outcome"
)

// WriteResult writes both result siblings for requestID into dir: text
// first, then structured JSON, each via an atomic temp-then-rename so a
// concurrent reader never observes a torn file. Writing the same id twice
// simply replaces both siblings — there is no accumulation.
func WriteResult(dir, requestID string, o outcome.Outcome) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create result dir: %w", err)
	}

	textPath := ResultTextPath(dir, requestID)
	if err := atomicio.WriteText(textPath, []byte(outcome.EncodeText(o))); err != nil {
		return fmt.Errorf("write text result: %w", err)
	}

	jsonContent, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal json result: %w", err)
	}
	jsonPath := ResultJSONPath(dir, requestID)
	if err := atomicio.WriteText(jsonPath, jsonContent); err != nil {
		return fmt.Errorf("write json result: %w", err)
	}
	return nil
}

// ResultExists reports whether both result siblings are present. A partial
// layout (one sibling written, the other not yet) counts as not existing —
// "not ready", never "malformed".
func ResultExists(dir, requestID string) bool {
	_, textErr := os.Stat(ResultTextPath(dir, requestID))
	_, jsonErr := os.Stat(ResultJSONPath(dir, requestID))
	return textErr == nil && jsonErr == nil
}

// ReadResult decodes the structured sibling for requestID. Returns
// ErrResultNotReady if either sibling is absent.
func ReadResult(dir, requestID string) (outcome.Outcome, error) {
	if !ResultExists(dir, requestID) {
		return outcome.Outcome{}, ErrResultNotReady
	}
	content, err := os.ReadFile(ResultJSONPath(dir, requestID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return outcome.Outcome{}, ErrResultNotReady
		}
		return outcome.Outcome{}, fmt.Errorf("read json result: %w", err)
	}
	var o outcome.Outcome
	if err := json.Unmarshal(content, &o); err != nil {
		return outcome.Outcome{}, fmt.Errorf("decode json result: %w", err)
	}
	return o, nil
}

// DeleteResult best-effort removes both result siblings for requestID.
func DeleteResult(dir, requestID string) error {
	textErr := os.Remove(ResultTextPath(dir, requestID))
	if textErr != nil && !os.IsNotExist(textErr) {
		return fmt.Errorf("delete text result: %w", textErr)
	}
	jsonErr := os.Remove(ResultJSONPath(dir, requestID))
	if jsonErr != nil && !os.IsNotExist(jsonErr) {
		return fmt.Errorf("delete json result: %w", jsonErr)
	}
	return nil
}
