package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://youtu.be/abc", YouTube},
		{"https://www.youtube.com/watch?v=abc", YouTube},
		{"https://m.youtube.com/shorts/abc", YouTube},
		{"https://www.instagram.com/p/xyz/", Instagram},
		{"https://www.tiktok.com/@user/video/1", TikTok},
		{"https://vm.tiktok.com/ZM123/", TikTok},
		{"https://www.linkedin.com/posts/foo", LinkedIn},
		{"https://story.snapchat.com/s/abc", Snapchat},
		{"HTTPS://WWW.YOUTUBE.COM/watch?v=x", YouTube},
		{"https://example.com/video.mp4", Unknown},
		{"https://twitter.com/user/status/1", Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.url))
		})
	}
}

func TestResolveMalformed(t *testing.T) {
	for _, raw := range []string{"", "not a url", "://youtube.com", "youtube.com/watch", "http://[::1", "%zz"} {
		assert.NotPanics(t, func() {
			assert.Equal(t, Unknown, Resolve(raw), raw)
		})
	}
}

func TestResolveOverlapUsesTableOrder(t *testing.T) {
	// host contains both linkedin.com and youtube.com; linkedin comes first
	assert.Equal(t, LinkedIn, Resolve("https://youtube.com.linkedin.com.example/x"))
}

func TestResolveDeterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Equal(t, Instagram, Resolve("https://instagram.com.youtube.com/reel/1"))
	}
}

func TestIsSocial(t *testing.T) {
	assert.True(t, IsSocial("https://x.com/user/status/1"))
	assert.True(t, IsSocial("https://twitter.com/user/status/1"))
	assert.True(t, IsSocial("https://youtu.be/abc"))
	assert.False(t, IsSocial("https://cdn.example.com/file.mp4"))
}

func TestIsCDN(t *testing.T) {
	cdn := "https://scontent-gru2-1.cdninstagram.com/v/t50/clip.mp4?oh=1"
	assert.True(t, IsSocial(cdn))
	assert.True(t, IsCDN(cdn))
	assert.True(t, IsCDN("https://rr3---sn-a5m.googlevideo.com/videoplayback?id=1"))
	assert.True(t, IsCDN("https://media.licdn.com/dms/image/x.jpg"))
	assert.False(t, IsCDN("https://www.instagram.com/reel/x/"))
	assert.False(t, IsCDN("https://notcdninstagram.com/a.mp4"))
	assert.False(t, IsCDN("not a url"))
}

func TestPlatforms(t *testing.T) {
	assert.Equal(t, []Platform{LinkedIn, Instagram, YouTube, TikTok, Snapchat}, Platforms())
}
