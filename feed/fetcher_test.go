package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const channelFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <link rel="self" href="http://www.youtube.com/feeds/videos.xml?channel_id=UCabc"/>
 <id>yt:channel:abc</id>
 <yt:channelId>abc</yt:channelId>
 <title>Bob Builds</title>
 <link rel="alternate" href="https://www.youtube.com/channel/UCabc"/>
 <author>
  <name>Bob Builds</name>
  <uri>https://www.youtube.com/channel/UCabc</uri>
 </author>
 <published>2020-01-01T00:00:00+00:00</published>
 <entry>
  <id>yt:video:vid1</id>
  <yt:videoId>vid1</yt:videoId>
  <yt:channelId>UCabc</yt:channelId>
  <title>Shed “part 1” l wood</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=vid1"/>
  <author>
   <name>Bob Builds</name>
   <uri>https://www.youtube.com/channel/UCabc</uri>
  </author>
  <published>2024-05-01T10:00:00+00:00</published>
  <updated>2024-05-02T10:00:00+00:00</updated>
  <media:group>
   <media:title>Shed part 1</media:title>
   <media:description>Building a shed…
Timestamps at 1:23</media:description>
  </media:group>
 </entry>
 <entry>
  <id>yt:video:vid2</id>
  <yt:videoId>vid2</yt:videoId>
  <title>Second</title>
  <link rel="alternate" href="https://www.youtube.com/watch?v=vid2"/>
  <published>2024-04-01T10:00:00+00:00</published>
 </entry>
</feed>`

func TestFetcher_Parse(t *testing.T) {
	fetcher := NewFetcher()

	info, err := fetcher.Parse(channelFeed, "vid1")
	require.NoError(t, err)

	assert.Equal(t, `Shed "part 1" | wood`, info.Title)
	assert.Equal(t, "Bob Builds", info.Uploader)
	assert.Equal(t, "https://www.youtube.com/channel/UCabc", info.UploaderURL)
	assert.Equal(t, "Building a shed...\nTimestamps at 1:23", info.Description)
	assert.Empty(t, info.UploaderID)
}

func TestFetcher_ParseFeedAuthorFallback(t *testing.T) {
	info, err := NewFetcher().Parse(channelFeed, "vid2")
	require.NoError(t, err)
	assert.Equal(t, "Second", info.Title)
	assert.Equal(t, "Bob Builds", info.Uploader)
}

func TestFetcher_ParseMissingVideo(t *testing.T) {
	_, err := NewFetcher().Parse(channelFeed, "nope")
	assert.ErrorIs(t, err, ErrVideoNotInFeed)
}

func TestFetcher_ParseInvalidFeed(t *testing.T) {
	fetcher := NewFetcher()

	// Test with invalid XML
	_, err := fetcher.Parse("<invalid>xml</broken>", "vid1")
	assert.Error(t, err, "Should error on invalid XML")

	// Test with empty string
	_, err = fetcher.Parse("", "vid1")
	assert.Error(t, err, "Should error on empty string")
}

func TestFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(channelFeed))
	}))
	defer server.Close()

	info, err := NewFetcher().Fetch(context.Background(), server.URL+"/feeds/videos.xml?channel_id=UCabc", "vid1")
	require.NoError(t, err)
	assert.Equal(t, "Bob Builds", info.Uploader)
}

func TestFetcher_FetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewFetcher().Fetch(context.Background(), server.URL, "vid1")
	assert.Error(t, err)
}

func TestFeedURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"channel url", "https://www.youtube.com/channel/UCabc", ChannelFeedURL + "UCabc", true},
		{"trailing slash", "https://www.youtube.com/channel/UCabc/", ChannelFeedURL + "UCabc", true},
		{"handle url", "https://www.youtube.com/@bob", "", false},
		{"channel sub page", "https://www.youtube.com/channel/UCabc/videos", "", false},
		{"other site", "https://www.bilibili.com/channel/UCabc", "", false},
		{"garbage", "://", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FeedURL(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVideoID(t *testing.T) {
	assert.Equal(t, "abc", VideoID("https://www.youtube.com/watch?v=abc&t=10s"))
	assert.Empty(t, VideoID("https://www.youtube.com/"))
	assert.Empty(t, VideoID("://"))
}
