// Package changelog implements the two permanent, append-only record
// types the coordination layer produces: per-commit changelogs and
// per-merge metadata. Both are written via atomicio's temp-then-rename so
// a reader never observes a torn file, and neither is ever deleted by
// this package once written.
package changelog

import (
	"fmt"
	"strings"
	"time"

	"github.com/vitruvius-tools/ums-hooks/internal/atomicio"
	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
)

// Record holds the fields written into a per-commit changelog file, keyed
// by the 7-character prefix of CommitSha.
type Record struct {
	CommitSha   string
	Branch      string
	Author      string
	AuthorEmail string
	AuthorDate  time.Time
	FileChanges string // pre-formatted; ums.FormatFileChanges or the sentinel
}

// Write renders and atomically writes a changelog file at
// <umsDir>/changelogs/<7-char sha>.txt. Calling Write twice with the same
// CommitSha simply replaces the file's content. The provisional record
// from validation (keyed by the tree SHA the pre-commit hook supplies) and
// the permanent one from post-commit (keyed by the real commit SHA) are
// therefore normally two separate files.
func Write(paths trigger.Paths, rec Record) error {
	shortSha := trigger.ShortSha(rec.CommitSha)
	path := paths.ChangelogPath(shortSha)

	var b strings.Builder
	b.WriteString("SEMANTIC CHANGELOG\n")
	fmt.Fprintf(&b, "Commit:     %s\n", rec.CommitSha)
	fmt.Fprintf(&b, "Branch:     %s\n", rec.Branch)
	fmt.Fprintf(&b, "Author:     %s <%s>\n", rec.Author, rec.AuthorEmail)
	fmt.Fprintf(&b, "AuthorDate: %s\n", rec.AuthorDate.Format(time.RFC3339))
	b.WriteString("\nFILE CHANGES\n")
	fileChanges := rec.FileChanges
	if fileChanges == "" {
		fileChanges = "No file changes detected."
	}
	b.WriteString(fileChanges)
	b.WriteString("\n")

	if err := atomicio.WriteText(path, []byte(b.String())); err != nil {
		return fmt.Errorf("write changelog %s: %w", path, err)
	}
	return nil
}
