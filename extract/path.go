package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// A Segment is one step of a Path: either an object key or an array index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns a segment selecting the member called k of an object.
func Key(k string) Segment {
	return Segment{key: k}
}

// Index returns a segment selecting the i-th element of an array.
func Index(i int) Segment {
	return Segment{index: i, isIndex: true}
}

func (s Segment) IsIndex() bool {
	return s.isIndex
}

// Key returns the object key of s, or "" for an index segment.
func (s Segment) Key() string {
	return s.key
}

// Index returns the array index of s, or -1 for a key segment.
func (s Segment) Index() int {
	if !s.isIndex {
		return -1
	}
	return s.index
}

func (s Segment) String() string {
	if s.isIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.key
}

// A Path locates a value in a document, starting from the root.  The empty
// path designates the root value itself.
type Path []Segment

// DefaultPath is where a Solr streaming response keeps its documents.
var DefaultPath = Path{Key("result-set"), Key("docs")}

func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if i > 0 && !seg.isIndex {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}

func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// ParsePath parses a path written in dotted notation, e.g. "result-set.docs"
// or "results[0].docs".  Keys are separated by dots, indexes are written in
// square brackets.  The empty string parses to the empty path.
func ParsePath(s string) (Path, error) {
	var path Path
	rest := s
	for rest != "" {
		if len(path) > 0 {
			switch rest[0] {
			case '[':
			case '.':
				rest = rest[1:]
				if rest == "" || rest[0] == '.' || rest[0] == '[' {
					return nil, fmt.Errorf("invalid path %q: expected key after '.'", s)
				}
			default:
				return nil, fmt.Errorf("invalid path %q: unexpected %q after %s", s, rest[0], path[len(path)-1])
			}
		}
		if rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, fmt.Errorf("invalid path %q: missing ']'", s)
			}
			i, err := strconv.Atoi(rest[1:end])
			if err != nil || i < 0 {
				return nil, fmt.Errorf("invalid path %q: bad index %q", s, rest[1:end])
			}
			path = append(path, Index(i))
			rest = rest[end+1:]
			continue
		}
		end := strings.IndexAny(rest, ".[")
		if end < 0 {
			end = len(rest)
		}
		if end == 0 {
			return nil, fmt.Errorf("invalid path %q: empty key", s)
		}
		path = append(path, Key(rest[:end]))
		rest = rest[end:]
	}
	return path, nil
}

// MustParsePath is like ParsePath but panics if s is not a valid path.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}
