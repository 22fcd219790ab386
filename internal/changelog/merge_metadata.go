package changelog

import (
	"fmt"
	"time"

	"github.com/vitruvius-tools/ums-hooks/internal/atomicio"
	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
)

// MergeMetadata is the permanent audit record written by the Merge
// Watcher, keyed by merge commit SHA. It is serialized as YAML — the
// concrete structured-text format spec.md's §4.9 leaves unspecified, and
// YAML lets this share atomicio's write-and-validate path with Config.
type MergeMetadata struct {
	MergeCommitSha string    `yaml:"mergeCommitSha"`
	SourceBranch   string    `yaml:"sourceBranch"`
	TargetBranch   string    `yaml:"targetBranch"`
	Valid          bool      `yaml:"valid"`
	Timestamp      time.Time `yaml:"timestamp"`
}

// WriteMergeMetadata atomically writes the metadata file at
// <umsDir>/merges/<mergeSha>.metadata. The core never deletes this file;
// it persists as an audit trail even after the hook cleans up the
// request-scoped result siblings.
func WriteMergeMetadata(paths trigger.Paths, m MergeMetadata) error {
	path := paths.MergeMetadataPath(m.MergeCommitSha)
	if err := atomicio.WriteYAML(path, m); err != nil {
		return fmt.Errorf("write merge metadata %s: %w", path, err)
	}
	return nil
}
