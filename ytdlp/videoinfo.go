package ytdlp

import (
	"strings"

	"github.com/robertmeta/ytcomments/commenttext"
	"github.com/robertmeta/ytcomments/model"
)

// ParseVideoInfo reads the bracketed fields printed by VideoInfoArgs. It
// returns false when no field was found.
func ParseVideoInfo(output string) (model.VideoInfo, bool) {
	values := make(map[string]string, len(VideoInfoFields))
	for _, field := range VideoInfoFields {
		if v, ok := fieldValue(output, field); ok {
			values[field] = v
		}
	}
	if len(values) == 0 {
		return model.VideoInfo{}, false
	}

	info := model.VideoInfo{
		Title:       commenttext.Normalize(values["title"]),
		Uploader:    strings.TrimSpace(values["uploader"]),
		UploaderID:  values["uploader_id"],
		UploaderURL: values["uploader_url"],
		Description: commenttext.Normalize(values["description"]),
	}
	info.Title = strings.ReplaceAll(info.Title, " l ", " | ")

	return info, true
}

// fieldValue returns the text between the first two [field] tags. Multi-line
// values get every line trimmed.
func fieldValue(output, field string) (string, bool) {
	tag := "[" + field + "]"

	_, rest, ok := strings.Cut(output, tag)
	if !ok {
		return "", false
	}
	value, _, ok := strings.Cut(rest, tag)
	if !ok {
		return "", false
	}

	if !strings.Contains(value, "\n") {
		return value, true
	}

	lines := strings.Split(strings.ReplaceAll(value, "\r\n", "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "\n"), true
}
