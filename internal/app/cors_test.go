package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOriginHost(t *testing.T) {
	assert.Equal(t, "app.example.com", extractOriginHost("https://app.example.com"))
	assert.Equal(t, "localhost:3000", extractOriginHost("http://localhost:3000"))
	assert.Equal(t, "not-a-url", extractOriginHost("not-a-url"))
}

func TestMatchOriginPattern(t *testing.T) {
	assert.True(t, matchOriginPattern("app.example.com", "app.example.com"))
	assert.True(t, matchOriginPattern("*.example.com", "api.example.com"))
	assert.False(t, matchOriginPattern("*.example.com", "example.org"))
	assert.True(t, matchOriginPattern("localhost:*", "localhost:3000"))
	assert.False(t, matchOriginPattern("localhost:*", "example.com:3000"))
	assert.False(t, matchOriginPattern("app.example.com", "evil.com"))
}
