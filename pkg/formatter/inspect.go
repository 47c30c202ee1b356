package formatter

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Structure counts the chunk markers of a joined document.
type Structure struct {
	Headings       int
	ThematicBreaks int
}

// Matches reports whether the document holds exactly n blocks: n level-1
// headings and n-1 separators.
func (s Structure) Matches(n int) bool {
	wantBreaks := n - 1
	if n == 0 {
		wantBreaks = 0
	}
	return s.Headings == n && s.ThematicBreaks == wantBreaks
}

// Inspect parses document as CommonMark and counts level-1 headings and
// thematic breaks at any depth.
func Inspect(document string) (Structure, error) {
	src := []byte(document)
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var s Structure
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 1 {
				s.Headings++
			}
		case *ast.ThematicBreak:
			s.ThematicBreaks++
		}
		return ast.WalkContinue, nil
	})
	return s, err
}
