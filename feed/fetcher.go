// Package feed reads video metadata from a channel's Atom feed. It stands in
// for yt-dlp when the video info cannot be printed.
package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/robertmeta/ytcomments/commenttext"
	"github.com/robertmeta/ytcomments/model"
)

// ChannelFeedURL is the Atom feed of a YouTube channel, by channel id.
const ChannelFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id="

// ErrVideoNotInFeed is returned when the feed does not list the video. Channel
// feeds only carry the most recent uploads.
var ErrVideoNotInFeed = errors.New("video not found in channel feed")

// Fetcher handles fetching and parsing channel feeds.
type Fetcher struct {
	parser *gofeed.Parser
}

// NewFetcher creates a new Fetcher.
func NewFetcher() *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: 30 * time.Second}
	return &Fetcher{parser: parser}
}

// Fetch retrieves a channel feed and returns the metadata of videoID.
func (f *Fetcher) Fetch(ctx context.Context, feedURL, videoID string) (model.VideoInfo, error) {
	parsedFeed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return model.VideoInfo{}, fmt.Errorf("failed to fetch feed from %s: %w", feedURL, err)
	}

	return f.convert(parsedFeed, videoID)
}

// Parse parses feed content from a string and returns the metadata of videoID.
func (f *Fetcher) Parse(content, videoID string) (model.VideoInfo, error) {
	if content == "" {
		return model.VideoInfo{}, fmt.Errorf("feed content is empty")
	}

	parsedFeed, err := f.parser.ParseString(content)
	if err != nil {
		return model.VideoInfo{}, fmt.Errorf("failed to parse feed: %w", err)
	}

	return f.convert(parsedFeed, videoID)
}

// convert picks the entry of videoID out of a parsed feed.
func (f *Fetcher) convert(gf *gofeed.Feed, videoID string) (model.VideoInfo, error) {
	for _, item := range gf.Items {
		if itemVideoID(item) != videoID {
			continue
		}

		info := model.VideoInfo{
			Title:       strings.ReplaceAll(commenttext.Normalize(item.Title), " l ", " | "),
			UploaderURL: gf.Link,
			Description: commenttext.Normalize(itemDescription(item)),
		}

		// Prefer the entry author over the feed author
		if len(item.Authors) > 0 {
			info.Uploader = strings.TrimSpace(item.Authors[0].Name)
		} else if len(gf.Authors) > 0 {
			info.Uploader = strings.TrimSpace(gf.Authors[0].Name)
		}

		return info, nil
	}

	return model.VideoInfo{}, fmt.Errorf("%w: %s", ErrVideoNotInFeed, videoID)
}

// itemVideoID reads <yt:videoId>, falling back to the v parameter of the link.
func itemVideoID(item *gofeed.Item) string {
	if id := extensionValue(item.Extensions, "yt", "videoId"); id != "" {
		return id
	}
	return VideoID(item.Link)
}

// itemDescription reads <media:group><media:description>.
func itemDescription(item *gofeed.Item) string {
	groups := item.Extensions["media"]["group"]
	if len(groups) > 0 {
		if d := groups[0].Children["description"]; len(d) > 0 {
			return d[0].Value
		}
	}
	return item.Description
}

func extensionValue(exts ext.Extensions, space, name string) string {
	if values := exts[space][name]; len(values) > 0 {
		return strings.TrimSpace(values[0].Value)
	}
	return ""
}

// VideoID returns the v parameter of a YouTube watch URL.
func VideoID(videoURL string) string {
	u, err := url.Parse(videoURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("v")
}

// FeedURL returns the channel feed of a channel URL of the form
// https://www.youtube.com/channel/UC..., or false for any other URL.
func FeedURL(channelURL string) (string, bool) {
	u, err := url.Parse(channelURL)
	if err != nil || !strings.Contains(u.Host, "youtube.") {
		return "", false
	}

	id, ok := strings.CutPrefix(strings.TrimSuffix(u.Path, "/"), "/channel/")
	if !ok || !strings.HasPrefix(id, "UC") || strings.Contains(id, "/") {
		return "", false
	}

	return ChannelFeedURL + url.QueryEscape(id), true
}
