package maps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePhone(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "(555) 012-3456", "5550123456"},
		{"embedded in text", "Call us: (555) 012-3456 today", "5550123456"},
		{"international", "+1 555-012-3456", "15550123456"},
		{"too few digits", "12345", ""},
		{"no digits", "Open 24 hours", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePhone(tt.in))
		})
	}
}

func TestParseRating(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"rating with review count", "4.7\n(128 reviews)", "4.7"},
		{"bare rating", "3.9", "3.9"},
		{"non-rating text", "Open now\nCar Wash", ""},
		{"integer is not a rating", "5\n(2 reviews)", ""},
		{"rating not on first line", "New!\n4.2", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRating(tt.in))
		})
	}
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"http upgraded and slash stripped", "http://example.com/", "https://example.com"},
		{"schemeless", "example.com", "https://example.com"},
		{"https passthrough", "https://example.com/about", "https://example.com/about"},
		{"map-internal link rejected", "https://www.google.com/maps/place/foo", "N/A"},
		{"redirector rejected", "https://www.google.com/url?q=https://example.com", "N/A"},
		{"comma sibling stripped", "https://example.com,https://other.com", "https://example.com"},
		{"empty", "", "N/A"},
		{"sentinel passthrough", "N/A", "N/A"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanURL(tt.in))
		})
	}
}

func TestJoinTimings(t *testing.T) {
	got := JoinTimings([]string{
		"Monday: 9 AM to 5 PM",
		"Tuesday: 9 AM to 5 PM",
		"Monday: duplicate row",
	})
	assert.Equal(t, "Monday: 9 AM to 5 PM | Tuesday: 9 AM to 5 PM", got)

	assert.Equal(t, "N/A", JoinTimings(nil))
	assert.Equal(t, "N/A", JoinTimings([]string{"no separator"}))
}

func TestJSStringArray(t *testing.T) {
	assert.Equal(t, `["a.b", "c[d='e']"]`, jsStringArray([]string{"a.b", "c[d='e']"}))
}
