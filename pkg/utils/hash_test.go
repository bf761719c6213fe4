package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestETagIsStableAndQuoted(t *testing.T) {
	a := ETag([]byte(`{"total":1}`))
	assert.Equal(t, a, ETag([]byte(`{"total":1}`)))
	assert.NotEqual(t, a, ETag([]byte(`{"total":2}`)))
	assert.Len(t, a, 34)
	assert.Equal(t, byte('"'), a[0])
}

func TestETagMatches(t *testing.T) {
	tag := ETag([]byte("body"))
	assert.True(t, ETagMatches(tag, tag))
	assert.True(t, ETagMatches(`"other", `+tag, tag))
	assert.True(t, ETagMatches("W/"+tag, tag))
	assert.True(t, ETagMatches("*", tag))
	assert.False(t, ETagMatches("", tag))
	assert.False(t, ETagMatches(`"other"`, tag))
}
