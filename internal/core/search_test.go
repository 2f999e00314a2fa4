package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata(t *testing.T) {
	md := Metadata{"b": 1, "a": "x", EmbeddingKey: []float32{1, 2}, "list": []string{"q", "r"}}

	assert.Equal(t, []string{"a", "b", "embedding", "list"}, md.Keys())
	assert.Equal(t, "q r", md.String("list"))
	assert.Equal(t, "1", md.String("b"))
	assert.Equal(t, "", md.String("missing"))

	stripped := md.Without(EmbeddingKey)
	assert.NotContains(t, stripped, EmbeddingKey)
	assert.Contains(t, md, EmbeddingKey, "original must not be mutated")
}

func TestMetadata_MarshalNil(t *testing.T) {
	data, err := json.Marshal(SearchMatch{Text: "t", SourceID: "s", Score: 0.5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"t","source":"s","score":0.5,"metadata":{}}`, string(data))
}

func TestSearchMatch_WithScore(t *testing.T) {
	m := SearchMatch{Score: 0.4}
	boosted := m.WithScore(0.9)
	assert.Equal(t, 0.4, m.Score)
	assert.Equal(t, 0.9, boosted.Score)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" User ")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, r)

	_, err = ParseRole("robot")
	assert.ErrorIs(t, err, ErrValidation)

	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"assistant","content":"hi"}`), &msg))
	assert.Equal(t, AssistantMessage("hi"), msg)
}
