package outcome

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccess(t *testing.T) {
	o := Success()
	assert.True(t, o.IsValid())
	assert.False(t, o.HasErrors())
	assert.False(t, o.HasWarnings())
}

func TestSuccessWithWarnings(t *testing.T) {
	o := SuccessWithWarnings([]string{"deprecated field foo"})
	assert.True(t, o.IsValid())
	assert.True(t, o.HasWarnings())
	assert.Equal(t, []string{"deprecated field foo"}, o.GetWarnings())
}

func TestSuccessWithWarnings_PanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { SuccessWithWarnings(nil) })
}

func TestFailure(t *testing.T) {
	o := Failure([]string{"missing required attribute"})
	assert.False(t, o.IsValid())
	assert.False(t, o.HasWarnings())
	assert.Equal(t, []string{"missing required attribute"}, o.GetErrors())
}

func TestFailure_PanicsOnEmpty(t *testing.T) {
	assert.Panics(t, func() { Failure(nil) })
}

func TestFailureWithWarnings(t *testing.T) {
	o := FailureWithWarnings([]string{"e1"}, []string{"w1"})
	assert.False(t, o.IsValid())
	assert.True(t, o.HasErrors())
	assert.True(t, o.HasWarnings())
	assert.Equal(t, []string{"e1"}, o.GetErrors())
	assert.Equal(t, []string{"w1"}, o.GetWarnings())
}

func TestFromException(t *testing.T) {
	o := FromException("ReloadException", errors.New("model store unreachable"))
	require.True(t, o.HasErrors())
	assert.Contains(t, o.GetErrors()[0], "ReloadException")
	assert.Contains(t, o.GetErrors()[0], "model store unreachable")
}

func TestEncodeText_Success(t *testing.T) {
	text := EncodeText(Success())
	lines := strings.SplitN(text, "\n", 2)
	assert.Equal(t, PASSED, lines[0])
}

func TestEncodeText_Failure(t *testing.T) {
	text := EncodeText(Failure([]string{"bad reference"}))
	lines := strings.SplitN(text, "\n", 2)
	assert.Equal(t, FAILED, lines[0])
	assert.Contains(t, text, "bad reference")
}

func TestJSONRoundTrip_AllVariants(t *testing.T) {
	cases := []Outcome{
		Success(),
		SuccessWithWarnings([]string{"w1", "w2"}),
		Failure([]string{"e1"}),
		FailureWithWarnings([]string{"e1"}, []string{"w1"}),
	}
	for _, want := range cases {
		data, err := json.Marshal(want)
		require.NoError(t, err)

		var got Outcome
		require.NoError(t, json.Unmarshal(data, &got))

		assert.Equal(t, want.IsValid(), got.IsValid())
		assert.Equal(t, want.HasWarnings(), got.HasWarnings())
		assert.Equal(t, want.GetErrors(), got.GetErrors())
		assert.Equal(t, want.GetWarnings(), got.GetWarnings())
	}
}

// TestJSONRoundTrip_FailureRetainsWarnings guards the specific regression
// this type exists to prevent: a deserializer that only populates warnings
// when valid is true would silently drop them here.
func TestJSONRoundTrip_FailureRetainsWarnings(t *testing.T) {
	want := FailureWithWarnings([]string{"missing attribute"}, []string{"deprecated field"})

	data, err := json.Marshal(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"valid":false`)
	assert.Contains(t, string(data), "deprecated field")

	var got Outcome
	require.NoError(t, json.Unmarshal(data, &got))
	require.True(t, got.HasWarnings())
	assert.Equal(t, []string{"deprecated field"}, got.GetWarnings())
	assert.False(t, got.IsValid())
}
