package commenttext

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind identifies the entity a span covers.
type Kind int

const (
	KindRepliedAuthor Kind = iota
	KindOtherAuthor
	KindLink
	KindHashtag
	KindTimestamp
	KindHeart
)

func (k Kind) String() string {
	switch k {
	case KindRepliedAuthor:
		return "replied-author"
	case KindOtherAuthor:
		return "other-author"
	case KindLink:
		return "link"
	case KindHashtag:
		return "hashtag"
	case KindTimestamp:
		return "timestamp"
	case KindHeart:
		return "heart"
	}
	return "unknown"
}

// Span annotates the half-open rune range [From, To) of a line. Value is the
// text currently covered by the range and is kept in sync while the line is
// wrapped.
type Span struct {
	Kind  Kind
	From  int
	To    int
	Value string
}

func (s *Span) overlaps(other *Span) bool {
	return s.From < other.To && other.From < s.To
}

// Author is an @mention and its rune offset in the text.
type Author struct {
	Name  string
	Index int
}

const authorChars = `[^\s\p{Z}—–―‒~!@#$%^&*()=+\[\]{};:'"\\|,<>/?` + "`" + `´‘’‚‛“”„‟\x{202C}]+`

var (
	authorRegexp        = regexp.MustCompile(`(?:@[\s\p{Z}]*)?(@` + authorChars + `)`)
	repliedAuthorRegexp = regexp.MustCompile(`^[\s\p{Z}]*(?:@[\s\p{Z}]*)?(@` + authorChars + `)`)
	emojiRegexp         = regexp.MustCompile(`\p{So}`)

	linkRegexp = regexp.MustCompile(`(?i)(?:https://|http://|ftp://|www\.)[A-Za-z0-9\-\\@:%_+~#=,?&./]+` +
		`|(?:[A-Za-z0-9\-\\@:%_+~#=,?&]+\.)+[A-Za-z0-9\-\\@:%_+~#=,?&]+/[A-Za-z0-9\-\\@:%_+~#=,?&./]+` +
		`|(?:[A-Za-z0-9\-\\@:%_+~#=,?&]+\.)+(?:com|gov|net|org|tv)`)

	hashtagRegexp = regexp.MustCompile(`#[A-Za-z0-9_]*[A-Za-z][A-Za-z0-9_]*`)
	heartRegexp   = regexp.MustCompile(`[♥❤❣]+`)

	// Candidate timestamp shapes at a fixed start, most greedy first.
	timestampRegexps = []*regexp.Regexp{
		regexp.MustCompile(`^\d+:[0-5]\d:[0-5]\d`),
		regexp.MustCompile(`^\d+:\d:[0-5]\d`),
		regexp.MustCompile(`^[0-5]\d:[0-5]\d`),
		regexp.MustCompile(`^\d:[0-5]\d`),
	}
)

// Books of the Bible. A chapter:verse reference after one of these is not a timestamp.
var bibleBooks = []string{
	"amos", "apostles", "chronicles", "colossians", "corinthians", "daniel", "deuteronomy",
	"ecclesiastes", "ephesians", "esther", "exodus", "ezekiel", "ezra", "galatians", "genesis",
	"habakkuk", "haggai", "hebrews", "hosea", "isaiah", "james", "jeremiah", "job", "joel", "john",
	"jonah", "joshua", "jude", "judges", "kings", "lamentations", "leviticus", "luke", "malachi",
	"mark", "matthew", "micah", "nahum", "nehemiah", "numbers", "obadiah", "peter", "philemon",
	"philippians", "proverbs", "psalms", "revelation", "romans", "ruth", "samuel", "solomon",
	"thessalonians", "timothy", "titus", "zechariah", "zephaniah",
}

// runeIndex converts a byte offset of s into a rune offset.
func runeIndex(s string, byteOffset int) int {
	return utf8.RuneCountInString(s[:byteOffset])
}

// authorName trims an @handle at its first emoji and validates its length.
func authorName(name string) (string, bool) {
	if loc := emojiRegexp.FindStringIndex(name); loc != nil {
		name = strings.TrimRightFunc(name[:loc[0]], unicode.IsSpace)
	}
	n := utf8.RuneCountInString(name)
	return name, n >= 4 && n <= 31
}

// Authors returns every @mention in text.
func Authors(text string) []Author {
	var authors []Author
	for _, m := range authorRegexp.FindAllStringSubmatchIndex(text, -1) {
		if name, ok := authorName(text[m[2]:m[3]]); ok {
			authors = append(authors, Author{Name: name, Index: runeIndex(text, m[2])})
		}
	}
	return authors
}

// RepliedAuthor returns the @mention that starts text, if any.
func RepliedAuthor(text string) (Author, bool) {
	m := repliedAuthorRegexp.FindStringSubmatchIndex(text)
	if m == nil {
		return Author{}, false
	}
	name, ok := authorName(text[m[2]:m[3]])
	if !ok {
		return Author{}, false
	}
	return Author{Name: name, Index: runeIndex(text, m[2])}, true
}

// Links returns the rune ranges of URL-like tokens.
func Links(text string) [][2]int {
	return runeRanges(text, linkRegexp.FindAllStringIndex(text, -1))
}

// Hashtags returns the rune ranges of hashtags bounded by whitespace or the
// edges of the text.
func Hashtags(text string) [][2]int {
	var ranges [][2]int
	for _, loc := range hashtagRegexp.FindAllStringIndex(text, -1) {
		if loc[0] > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:loc[0]])
			if !unicode.IsSpace(prev) {
				continue
			}
		}
		if loc[1] < len(text) {
			next, _ := utf8.DecodeRuneInString(text[loc[1]:])
			if !unicode.IsSpace(next) {
				continue
			}
		}
		ranges = append(ranges, [2]int{runeIndex(text, loc[0]), runeIndex(text, loc[1])})
	}
	return ranges
}

// Timestamps returns the rune ranges of M:SS and H:MM:SS tokens. A token must
// start at a word boundary, must not run into further digits and must not
// follow the name of a book of the Bible.
func Timestamps(text string) [][2]int {
	var ranges [][2]int

	for i := 0; i < len(text); {
		if !isDigit(text[i]) || (i > 0 && isWordBefore(text[:i])) {
			i++
			continue
		}

		end := -1
		for _, re := range timestampRegexps {
			loc := re.FindStringIndex(text[i:])
			if loc == nil {
				continue
			}
			if e := i + loc[1]; e == len(text) || !isDigit(text[e]) {
				end = e
				break
			}
		}

		if end < 0 || followsBibleBook(text[:i]) {
			i++
			continue
		}

		ranges = append(ranges, [2]int{runeIndex(text, i), runeIndex(text, end)})
		i = end
	}

	return ranges
}

// Hearts returns the rune ranges of runs of heart glyphs.
func Hearts(text string) [][2]int {
	return runeRanges(text, heartRegexp.FindAllStringIndex(text, -1))
}

func runeRanges(text string, locs [][]int) [][2]int {
	ranges := make([][2]int, 0, len(locs))
	for _, loc := range locs {
		ranges = append(ranges, [2]int{runeIndex(text, loc[0]), runeIndex(text, loc[1])})
	}
	return ranges
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isWordBefore(prefix string) bool {
	r, _ := utf8.DecodeLastRuneInString(prefix)
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func followsBibleBook(prefix string) bool {
	prefix = strings.ToLower(strings.TrimRightFunc(prefix, unicode.IsSpace))
	for _, book := range bibleBooks {
		if strings.HasSuffix(prefix, book) {
			return true
		}
	}
	return false
}

// Roster is the case-insensitive set of distinct authors of a comment dataset.
type Roster struct {
	names []string
	keys  []string
}

// NewRoster builds a roster from author names. Empty names are ignored.
func NewRoster(names []string) *Roster {
	r := &Roster{}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		r.names = append(r.names, name)
		r.keys = append(r.keys, strings.ToLower(name))
	}
	slices.Sort(r.names)
	slices.Sort(r.keys)
	r.keys = slices.Compact(r.keys)
	return r
}

// Names returns the distinct author names in ordinal order.
func (r *Roster) Names() []string {
	if r == nil {
		return nil
	}
	return r.names
}

// Len returns the number of distinct author names.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}

// Contains reports whether name is in the roster, ignoring case.
func (r *Roster) Contains(name string) bool {
	if r == nil {
		return false
	}
	_, found := slices.BinarySearch(r.keys, strings.ToLower(name))
	return found
}

// Extract finds the entity spans of a single line. The replied author is only
// looked for when checkReplied is set; on other lines a leading mention is
// not reported as another author either. Timestamps are only reported when
// withTimestamps is set. The result is ordered by descending From and no two
// spans overlap.
func Extract(line string, checkReplied bool, roster *Roster, withTimestamps bool) []*Span {
	var spans []*Span

	replied, hasReplied := RepliedAuthor(line)
	if hasReplied && checkReplied {
		spans = append(spans, authorSpan(KindRepliedAuthor, replied))
	}

	if roster.Len() > 0 {
		for _, a := range Authors(line) {
			if hasReplied && a == replied {
				continue
			}
			if roster.Contains(a.Name) {
				spans = append(spans, authorSpan(KindOtherAuthor, a))
			}
		}
	}

	runes := []rune(line)
	add := func(kind Kind, ranges [][2]int) {
		for _, rg := range ranges {
			span := &Span{Kind: kind, From: rg[0], To: rg[1], Value: string(runes[rg[0]:rg[1]])}
			if slices.ContainsFunc(spans, span.overlaps) {
				continue
			}
			spans = append(spans, span)
		}
	}

	// Handles can look like domains, so links never override an author.
	add(KindLink, Links(line))
	add(KindHashtag, Hashtags(line))
	if withTimestamps {
		add(KindTimestamp, Timestamps(line))
	}
	add(KindHeart, Hearts(line))

	SortDescending(spans)
	return spans
}

func authorSpan(kind Kind, a Author) *Span {
	return &Span{Kind: kind, From: a.Index, To: a.Index + utf8.RuneCountInString(a.Name), Value: a.Name}
}

// SortDescending orders spans by descending From.
func SortDescending(spans []*Span) {
	slices.SortStableFunc(spans, func(a, b *Span) int {
		return b.From - a.From
	})
}
