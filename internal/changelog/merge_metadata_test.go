package changelog

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/vitruvius-tools/ums-hooks/internal/trigger"
)

func TestWriteMergeMetadata(t *testing.T) {
	paths := trigger.NewPaths(t.TempDir())

	m := MergeMetadata{
		MergeCommitSha: "cafef00d",
		SourceBranch:   "feature",
		TargetBranch:   "main",
		Valid:          true,
		Timestamp:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, WriteMergeMetadata(paths, m))

	content, err := os.ReadFile(paths.MergeMetadataPath("cafef00d"))
	require.NoError(t, err)

	var got MergeMetadata
	require.NoError(t, yamlv3.Unmarshal(content, &got))
	assert.Equal(t, m.MergeCommitSha, got.MergeCommitSha)
	assert.Equal(t, m.SourceBranch, got.SourceBranch)
	assert.Equal(t, m.TargetBranch, got.TargetBranch)
	assert.True(t, got.Valid)
}
