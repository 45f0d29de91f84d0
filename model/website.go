package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned for URLs that are not recognizable video URLs.
var ErrInvalidURL = errors.New("not a video URL")

// WebsiteInfo describes how links to channels, hashtags and comments are built
// for the website hosting the video.
type WebsiteInfo struct {
	SiteURL             string
	ChannelURL          string
	HashtagURL          string
	LowerHashtag        bool
	CommentURLPath      bool
	CommentURLQuery     bool
	CommentURLParameter string
}

var (
	YouTube = WebsiteInfo{
		SiteURL:             "https://www.youtube.com",
		ChannelURL:          "https://www.youtube.com",
		HashtagURL:          "https://www.youtube.com/hashtag",
		LowerHashtag:        true,
		CommentURLQuery:     true,
		CommentURLParameter: "lc",
	}

	BiliBili = WebsiteInfo{
		SiteURL:    "https://www.bilibili.com",
		ChannelURL: "https://www.bilibili.com/space",
		HashtagURL: "https://www.bilibili.com",
	}

	BiliBiliGlobal = WebsiteInfo{
		SiteURL:    "https://www.bilibili.tv",
		ChannelURL: "https://www.bilibili.tv/space",
		HashtagURL: "https://www.bilibili.tv",
	}
)

// CommentLink returns the suffix appended to the video URL to link a comment,
// or "" if the website has no comment links.
func (w WebsiteInfo) CommentLink(id string) string {
	switch {
	case w.CommentURLQuery:
		return "&" + w.CommentURLParameter + "=" + id
	case w.CommentURLPath:
		return "/" + id
	}
	return ""
}

// ParseVideoURL validates a video URL and strips query parameters that do not
// identify the video. An empty URL is valid and resolves to YouTube.
func ParseVideoURL(raw string) (string, WebsiteInfo, error) {
	if raw == "" {
		return "", YouTube, nil
	}

	withScheme := raw
	if !strings.Contains(raw, "://") {
		withScheme = "https://" + raw
	}

	u, err := url.Parse(withScheme)
	if err != nil || u.Host == "" {
		return "", WebsiteInfo{}, fmt.Errorf("%w '%s'", ErrInvalidURL, raw)
	}

	host := strings.ToLower(u.Host)

	switch {
	case strings.Contains(host, "youtube.") || strings.Contains(host, ".youtube"):
		if u.Query().Get("v") == "" {
			return "", WebsiteInfo{}, fmt.Errorf("%w '%s'", ErrInvalidURL, raw)
		}
		keepQuery(u, "v")
		return u.String(), YouTube, nil

	case isBiliBili(host, "bilibili.com"), isBiliBili(host, "bilibili.tv"):
		if !strings.Contains(u.Path, "/video/") && !strings.Contains(u.Path, "/bangumi/play/") {
			return "", WebsiteInfo{}, fmt.Errorf("%w '%s'", ErrInvalidURL, raw)
		}
		keepQuery(u, "p")
		if isBiliBili(host, "bilibili.tv") {
			return u.String(), BiliBiliGlobal, nil
		}
		return u.String(), BiliBili, nil
	}

	site := u.Scheme + "://" + u.Host
	return u.String(), WebsiteInfo{SiteURL: site, ChannelURL: site, HashtagURL: site}, nil
}

func isBiliBili(host, domain string) bool {
	return strings.Contains(host, domain+".") || strings.Contains(host, "."+domain)
}

func keepQuery(u *url.URL, keep ...string) {
	query := u.Query()
	cleaned := url.Values{}
	for _, k := range keep {
		if v, ok := query[k]; ok {
			cleaned[k] = v
		}
	}
	u.RawQuery = cleaned.Encode()
}
