package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "application/json", ContentTypeFor("a/b/c.json"))
	assert.Equal(t, "image/jpeg", ContentTypeFor("face.jpeg"))
	assert.Equal(t, "image/png", ContentTypeFor("face.png"))
	assert.Equal(t, "application/octet-stream", ContentTypeFor("blob"))
}
