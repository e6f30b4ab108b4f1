package corpus

import (
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// minConceptHeadingLevel is the shallowest heading that defines a concept (###).
const minConceptHeadingLevel = 3

var (
	conceptToken = regexp.MustCompile(`^[A-Za-z0-9\-_]+`)
	linkPattern  = regexp.MustCompile(`\[\[\./([a-z\-_]+\.md)#([A-Za-z0-9\-_]+)\]\]`)
)

// Section is the span of a document owned by one concept heading.
// Owner is empty when the heading text does not start with a concept token.
type Section struct {
	Owner string
	Body  []byte
}

// Link is an inline cross-reference such as [[./materials.md#graphene]].
type Link struct {
	File   string
	Target string
}

var markdown = goldmark.New()

// Sections splits content at every heading of level three or deeper.
// Text before the first such heading belongs to no section.
func Sections(content []byte) []Section {
	type mark struct {
		start int
		owner string
	}

	root := markdown.Parser().Parse(text.NewReader(content))

	var marks []mark
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level < minConceptHeadingLevel {
			return ast.WalkContinue, nil
		}
		if h.Lines().Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		seg := h.Lines().At(0)
		marks = append(marks, mark{
			start: seg.Start,
			owner: string(conceptToken.Find(seg.Value(content))),
		})
		return ast.WalkSkipChildren, nil
	})

	sections := make([]Section, 0, len(marks))
	for i, m := range marks {
		end := len(content)
		if i+1 < len(marks) {
			end = marks[i+1].start
		}
		sections = append(sections, Section{Owner: m.owner, Body: content[m.start:end]})
	}
	return sections
}

// Headers returns the concept ids defined by content, in document order.
func Headers(content []byte) []string {
	var ids []string
	for _, s := range Sections(content) {
		if s.Owner != "" {
			ids = append(ids, s.Owner)
		}
	}
	return ids
}

// Links returns every cross-reference in b, in order of appearance.
func Links(b []byte) []Link {
	matches := linkPattern.FindAllSubmatch(b, -1)
	links := make([]Link, 0, len(matches))
	for _, m := range matches {
		links = append(links, Link{File: string(m[1]), Target: string(m[2])})
	}
	return links
}
