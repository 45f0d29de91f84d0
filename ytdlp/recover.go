package ytdlp

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/xrash/smetrics"
)

// Files whose names differ from the reported path by fewer edits than this
// are taken to be the same file.
const maxNameDistance = 10

// FindJSONFile recovers the path of the comments file from yt-dlp output. The
// last "[info] Writing" line wins; failing that, the last line mentioning a
// .json file under downloadPath. The path must exist, or a similarly named
// .json file must exist in downloadPath.
func FindJSONFile(lines []string, downloadPath string) (string, bool) {
	prefix := "[info] Writing '" + CommentsTemplate + "' to: "

	for i := len(lines) - 1; i >= 0; i-- {
		if path, ok := strings.CutPrefix(lines[i], prefix); ok && path != "" {
			if found, ok := VerifyJSONFile(path, downloadPath); ok {
				return found, true
			}
			break
		}
	}

	if downloadPath == "" {
		return "", false
	}

	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		start := strings.Index(line, downloadPath)
		if start < 0 {
			continue
		}
		end := strings.Index(line[start+len(downloadPath):], ".json")
		if end < 0 {
			continue
		}

		path := line[start : start+len(downloadPath)+end+len(".json")]
		if found, ok := VerifyJSONFile(path, downloadPath); ok {
			return found, true
		}
		break
	}

	return "", false
}

// VerifyJSONFile returns path when it exists. yt-dlp may have replaced
// characters the file system does not allow, so otherwise the closest .json
// file in dir by edit distance is returned.
func VerifyJSONFile(path, dir string) (string, bool) {
	if _, err := os.Stat(path); err == nil {
		return path, true
	}

	if dir == "" {
		dir = filepath.Dir(path)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		return "", false
	}

	best, bestDistance := "", maxNameDistance
	for _, f := range files {
		if d := smetrics.WagnerFischer(path, f, 1, 1, 1); d < bestDistance {
			best, bestDistance = f, d
		}
	}

	return best, best != ""
}
