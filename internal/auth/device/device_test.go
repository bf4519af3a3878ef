package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameFromUserAgent(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want string
	}{
		{
			name: "desktop chrome",
			ua:   "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			want: "Chrome on Linux x86_64",
		},
		{
			name: "empty",
			ua:   "",
			want: "Unknown device",
		},
		{
			name: "whitespace only",
			ua:   "   ",
			want: "Unknown device",
		},
		{
			name: "bot",
			ua:   "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			want: "Bot",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NameFromUserAgent(tt.ua))
		})
	}
}
