package inject

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"autoimport/internal/project"
)

// DefaultMarker is the macro path of the marker invocation.
const DefaultMarker = "autoimport::magic"

var (
	ErrMarkerMissing   = errors.New("marker invocation not found")
	ErrMarkerRepeated  = errors.New("marker invoked more than once in the same unit")
	ErrMarkerArguments = errors.New("marker takes no arguments")
)

// Region is the byte range [Start, End) of one marker invocation, including
// a trailing semicolon when present.
type Region struct {
	Start, End int
}

// Locate finds the single marker invocation in src. Rust units are parsed so
// that markers in comments and string literals are ignored; anything else
// falls back to a textual search.
func Locate(u project.Unit, src []byte, marker string) (Region, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	var (
		found []Region
		err   error
	)
	if u.Ext() == ".rs" {
		found, err = locateRust(src, marker)
	} else {
		found, err = locateText(src, marker)
	}
	if err != nil {
		return Region{}, fmt.Errorf("%s: %w", u, err)
	}
	switch len(found) {
	case 0:
		return Region{}, fmt.Errorf("%s: %w (%s!())", u, ErrMarkerMissing, marker)
	case 1:
		return found[0], nil
	default:
		return Region{}, fmt.Errorf("%s: %w (%d invocations)", u, ErrMarkerRepeated, len(found))
	}
}

var rustLanguage = sitter.NewLanguage(rust.Language())

func locateRust(src []byte, marker string) ([]Region, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(rustLanguage); err != nil {
		return nil, fmt.Errorf("failed to load rust grammar: %w", err)
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return locateText(src, marker)
	}
	defer tree.Close()

	want := normalizePath(marker)
	var (
		found []Region
		err   error
	)
	walkTree(tree.RootNode(), func(n *sitter.Node) bool {
		if err != nil {
			return false
		}
		if n.Kind() != "macro_invocation" {
			return true
		}
		path := n.ChildByFieldName("macro")
		if path == nil || normalizePath(nodeText(path, src)) != want {
			return true
		}
		if args := findChild(n, "token_tree"); args != nil && !emptyDelimited(nodeText(args, src)) {
			err = ErrMarkerArguments
			return false
		}
		found = append(found, Region{
			Start: int(n.StartByte()),
			End:   withSemicolon(src, int(n.EndByte())),
		})
		return false
	})
	return found, err
}

func walkTree(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil || !visit(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visit)
	}
}

func findChild(node *sitter.Node, kind string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(uint(i)); child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

func nodeText(n *sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

// locateText scans for "<marker> ! <open> ... <close>" outside of any parsing.
func locateText(src []byte, marker string) ([]Region, error) {
	text := string(src)
	var found []Region
	for off := 0; off < len(text); {
		idx := strings.Index(text[off:], marker)
		if idx < 0 {
			break
		}
		start := off + idx
		off = start + len(marker)
		if start > 0 && isIdentByte(text[start-1]) {
			continue
		}
		i := skipSpace(text, off)
		if i >= len(text) || text[i] != '!' {
			continue
		}
		i = skipSpace(text, i+1)
		if i >= len(text) {
			continue
		}
		closer, ok := closerOf(text[i])
		if !ok {
			continue
		}
		end := strings.IndexByte(text[i+1:], closer)
		if end < 0 {
			continue
		}
		end += i + 1
		if strings.TrimSpace(text[i+1:end]) != "" {
			return nil, ErrMarkerArguments
		}
		found = append(found, Region{Start: start, End: withSemicolon(src, end+1)})
		off = end + 1
	}
	return found, nil
}

func withSemicolon(src []byte, end int) int {
	i := end
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i < len(src) && src[i] == ';' {
		return i + 1
	}
	return end
}

func emptyDelimited(s string) bool {
	if len(s) < 2 {
		return true
	}
	return strings.TrimSpace(s[1:len(s)-1]) == ""
}

func normalizePath(p string) string {
	p = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, p)
	return strings.TrimPrefix(p, "::")
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func closerOf(open byte) (byte, bool) {
	switch open {
	case '(':
		return ')', true
	case '[':
		return ']', true
	case '{':
		return '}', true
	}
	return 0, false
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
