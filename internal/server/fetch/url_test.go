package fetch

import (
	"testing"

	"github.com/dmitrijs2005/clipvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		allowed []string
		want    string
		wantErr bool
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", nil, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"playlist dropped", "https://youtube.com/watch?v=dQw4w9WgXcQ&list=PL123&index=2", nil, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"short link", "youtu.be/dQw4w9WgXcQ?t=10", nil, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"shorts", "https://m.youtube.com/shorts/abc_DEF-1", nil, "https://www.youtube.com/watch?v=abc_DEF-1", false},
		{"channel page", "https://www.youtube.com/@someone", nil, "", true},
		{"missing id", "https://www.youtube.com/watch", nil, "", true},
		{"other host", "https://vimeo.com/12345", nil, "https://vimeo.com/12345", false},
		{"other host not allowed", "https://vimeo.com/12345", []string{"youtube.com", "youtu.be"}, "", true},
		{"allowed subdomain", "https://player.vimeo.com/video/1", []string{"vimeo.com"}, "https://player.vimeo.com/video/1", false},
		{"scheme", "file:///etc/passwd", nil, "", true},
		{"empty", "  ", nil, "", true},
		{"no host", "https://", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CheckURL(tt.in, tt.allowed)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrURLRejected)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
