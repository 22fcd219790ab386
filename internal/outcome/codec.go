package outcome

import (
	"encoding/json"
	"fmt"
	"strings"
)

// jsonOutcome is the wire shape of the structured result sibling. All four
// variants encode to this same shape — the only way to recover the variant
// on read is IsValid()/HasWarnings() on the decoded Outcome, never a
// separate discriminant field.
type jsonOutcome struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// MarshalJSON renders the structured form consumed by hook scripts and
// test harnesses. Errors and warnings are always emitted as non-nil
// (possibly empty) arrays so a reader never has to special-case null.
func (o Outcome) MarshalJSON() ([]byte, error) {
	errs := o.Errors
	if errs == nil {
		errs = []string{}
	}
	warns := o.Warnings
	if warns == nil {
		warns = []string{}
	}
	return json.Marshal(jsonOutcome{
		Valid:    o.IsValid(),
		Errors:   errs,
		Warnings: warns,
	})
}

// UnmarshalJSON decodes the structured form. This is where the known
// regression lives in hand-rolled deserializers: populating warnings only
// when valid is true silently drops warnings on FailureWithWarnings. Both
// fields are always decoded regardless of valid. An empty array decodes to
// a nil slice, as the constructors build it, so a decoded outcome equals
// the one that was encoded.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var decoded jsonOutcome
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("decode outcome: %w", err)
	}
	o.Errors, o.Warnings = nil, nil
	if len(decoded.Errors) > 0 {
		o.Errors = decoded.Errors
	}
	if len(decoded.Warnings) > 0 {
		o.Warnings = decoded.Warnings
	}
	return nil
}

// PASSED is the literal token the text form must contain on success, so a
// hook script can grep for it without parsing.
const PASSED = "PASSED"

// FAILED is the literal first line of the text form on failure.
const FAILED = "FAILED"

// EncodeText renders the human-readable form written alongside the
// structured JSON sibling. Format:
//
//	PASSED|FAILED
//
//	Errors:
//	  - <error>
//	  ...
//
//	Warnings:
//	  - <warning>
//	  ...
//
// Both headings are always present so the text form's shape doesn't vary
// with the number of items — a heading with no bullets under it simply
// means the outcome has none.
func EncodeText(o Outcome) string {
	var b strings.Builder
	if o.IsValid() {
		b.WriteString(PASSED)
	} else {
		b.WriteString(FAILED)
	}
	b.WriteString("\n\nErrors:\n")
	for _, e := range o.Errors {
		fmt.Fprintf(&b, "  - %s\n", e)
	}
	b.WriteString("\nWarnings:\n")
	for _, w := range o.Warnings {
		fmt.Fprintf(&b, "  - %s\n", w)
	}
	return b.String()
}
