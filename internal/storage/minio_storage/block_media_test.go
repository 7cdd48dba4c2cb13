package minio_storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaRef(t *testing.T) {
	ref := Ref("assignments/a/blocks/b/c.png")
	assert.Equal(t, "media://assignments/a/blocks/b/c.png", ref)

	key, ok := ParseRef(ref)
	assert.True(t, ok)
	assert.Equal(t, "assignments/a/blocks/b/c.png", key)

	_, ok = ParseRef("https://example.com/c.png")
	assert.False(t, ok)
	_, ok = ParseRef(RefScheme)
	assert.False(t, ok)
}
