package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyAgreesWithIsAudio(t *testing.T) {
	for _, token := range Supported() {
		c := Classify(token)
		assert.Equal(t, IsAudio(token), c.Kind == KindAudio, "token %q", token)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		token     string
		kind      Kind
		container string
	}{
		{"mp3", KindAudio, "mp3"},
		{"OPUS", KindAudio, "opus"},
		{"mp4", KindVideo, "mp4"},
		{"mp4-4k", KindVideo, "mp4"},
		{"mp4-1080", KindVideo, "mp4"},
		{"ts", KindVideo, "ts"},
		{"jpeg", KindImage, "jpg"},
		{"png", KindImage, "png"},
		{"pdf", KindDocument, "pdf"},
		{"wma", KindDocument, "wma"},
		{"xyz", KindDocument, "xyz"},
		{".webm", KindVideo, "webm"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			c := Classify(tt.token)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.container, c.Container)
		})
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, IsSupported("mp3"))
	assert.True(t, IsSupported("MP4-2K"))
	assert.True(t, IsSupported("jpg2"))
	assert.False(t, IsSupported("exe"))
	assert.False(t, IsSupported(""))
}

func TestFromFilename(t *testing.T) {
	assert.Equal(t, "mp3", FromFilename("clip.mp3"))
	assert.Equal(t, "mp4", FromFilename("dir/My Video.MP4"))
	assert.Equal(t, "", FromFilename("download"))
	assert.Equal(t, "", FromFilename("trailing."))
}

func TestExtensionForContentType(t *testing.T) {
	assert.Equal(t, "mp4", ExtensionForContentType("video/mp4"))
	assert.Equal(t, "mp3", ExtensionForContentType("audio/mpeg"))
	assert.Equal(t, "mpeg", ExtensionForContentType("video/mpeg"))
	assert.Equal(t, "mov", ExtensionForContentType("video/quicktime"))
	assert.Equal(t, "jpg", ExtensionForContentType("image/jpeg; charset=binary"))
	assert.Equal(t, "bin", ExtensionForContentType(""))
	assert.Equal(t, "bin", ExtensionForContentType("garbage"))
}

func TestMatchesContentType(t *testing.T) {
	assert.True(t, MatchesContentType("mp3", "audio/mpeg"))
	assert.True(t, MatchesContentType("mp3", "audio/mp3"))
	assert.True(t, MatchesContentType("wav", "audio/x-wav"))
	assert.True(t, MatchesContentType("mp4-1080", "video/mp4"))
	assert.False(t, MatchesContentType("mp3", "video/mp4"))
	assert.False(t, MatchesContentType("mp3", "video/mpeg"))
	assert.True(t, MatchesContentType("mpeg", "video/mpeg"))
	assert.False(t, MatchesContentType("ogg", ""))
}

func TestMIMEType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", MIMEType("mp3"))
	assert.Equal(t, "video/mp4", MIMEType("mp4-4k"))
	assert.Equal(t, "image/jpeg", MIMEType("jpeg"))
}
