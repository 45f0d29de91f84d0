package render

// Chains deeper than this are piped on demand instead of cached.
const maxCachedDepth = 5

type indentKey struct {
	indent string
	size   int
	depth  int
	last   [maxCachedDepth]bool
}

// IndentCache memoizes piped indentation strings. The zero value is not
// usable; create one with NewIndentCache. An IndentCache is not safe for
// concurrent use; each render pass owns one.
type IndentCache struct {
	entries map[indentKey]string
}

// NewIndentCache returns an empty cache.
func NewIndentCache() *IndentCache {
	return &IndentCache{entries: make(map[indentKey]string)}
}

// Len returns the number of cached indents.
func (c *IndentCache) Len() int {
	return len(c.entries)
}

// Pipe draws the vertical guides of the ancestors into indent. The column
// of ancestor n is n*size; it gets a '│' when that ancestor is not the last
// reply of its parent and the column is blank. isLast lists the ancestors
// from the outermost in.
func (c *IndentCache) Pipe(indent string, size int, isLast []bool) string {
	if indent == "" || len(isLast) == 0 {
		return indent
	}

	if len(isLast) > maxCachedDepth {
		return pipe(indent, size, isLast)
	}

	key := indentKey{indent: indent, size: size, depth: len(isLast)}
	copy(key.last[:], isLast)

	if piped, ok := c.entries[key]; ok {
		return piped
	}

	piped := pipe(indent, size, isLast)
	c.entries[key] = piped
	return piped
}

func pipe(indent string, size int, isLast []bool) string {
	chars := []rune(indent)
	columns := len(chars) / size

	for n := 0; n < columns && n < len(isLast); n++ {
		pos := n * size
		if !isLast[n] && chars[pos] == ' ' {
			chars[pos] = '│'
		}
	}

	return string(chars)
}
