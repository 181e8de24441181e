package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainLimiter_PerHostBuckets(t *testing.T) {
	dl := NewDomainLimiter(1.0, 1)

	// First request per host passes immediately, second is throttled.
	assert.True(t, dl.Allow("https://example.com/pricing"))
	assert.False(t, dl.Allow("https://example.com/services"))

	// A different host has its own bucket.
	assert.True(t, dl.Allow("https://other.example.org"))
}

func TestDomainLimiter_InvalidURLPasses(t *testing.T) {
	dl := NewDomainLimiter(1.0, 1)
	assert.True(t, dl.Allow("not a url"))
	assert.True(t, dl.Allow("not a url"))
}

func TestExtractDomain(t *testing.T) {
	assert.Equal(t, "example.com", extractDomain("https://EXAMPLE.com:8443/x?y=1"))
	assert.Equal(t, "", extractDomain("no-scheme-here"))
}
