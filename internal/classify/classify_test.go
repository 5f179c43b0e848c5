package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want Kind
	}{
		{"empty string", "", Invalid},
		{"not a url", "://///", Invalid},
		{"non-youtube host", "https://vimeo.com/12345", Invalid},
		{"bare youtube home", "https://www.youtube.com/", Invalid},
		{"watch link", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", Video},
		{"watch link without www", "https://youtube.com/watch?v=dQw4w9WgXcQ", Video},
		{"shorts link", "https://www.youtube.com/shorts/abc123xyz", Video},
		{"bare shorts tab", "https://www.youtube.com/shorts", Collection},
		{"playlist page", "https://www.youtube.com/playlist?list=PL12345", Collection},
		{"watch link in playlist", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL12345", VideoOrCollection},
		{"handle page", "https://www.youtube.com/@somechannel", Collection},
		{"channel id page", "https://www.youtube.com/channel/UC12345", Collection},
		{"channel videos tab", "https://www.youtube.com/@somechannel/videos", Collection},
		{"channel streams tab", "https://www.youtube.com/@somechannel/streams", Collection},
		{"channel podcasts tab", "https://www.youtube.com/@somechannel/podcasts", Collection},
		{"channel playlists tab", "https://www.youtube.com/@somechannel/playlists", Collection},
		{"channel releases tab", "https://www.youtube.com/@somechannel/releases", Collection},
		{"unknown youtube path", "https://www.youtube.com/about", Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.url), "url: %s", tt.url)
		})
	}
}

func TestCanonicalVideoURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			"already canonical",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			"drops playlist parameters",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PL12345&index=3",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			"drops timestamp and fragment",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s#comments",
			"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			"non-watch url unchanged",
			"https://www.youtube.com/shorts/abc123xyz",
			"https://www.youtube.com/shorts/abc123xyz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalVideoURL(tt.url))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "video", Video.String())
	assert.Equal(t, "collection", Collection.String())
	assert.Equal(t, "video_or_collection", VideoOrCollection.String())
	assert.Equal(t, "invalid", Invalid.String())
}
