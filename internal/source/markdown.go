package source

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownReader flattens a Markdown edition to plain text using goldmark.
// Headings become their own lines (the chapter splitter recognizes them by
// content, not markup) and block text keeps its hard line breaks, which
// carry the verse layout.
type MarkdownReader struct{}

func (p *MarkdownReader) Read(r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	var out []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if t := string(node.Text(src)); t != "" {
				out = append(out, t)
			}
		default:
			if t := blockText(n, src); t != "" {
				out = append(out, t)
			}
		}
	}
	return strings.Join(out, "\n\n"), nil
}

// blockText gets the text content of a goldmark AST node, preserving line
// breaks within the block. Blocks that carry raw line segments (paragraphs,
// code blocks) are read from those; containers recurse.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(bytes.TrimRight(seg.Value(src), "\n"))
			buf.WriteByte('\n')
		}
		return strings.TrimRight(buf.String(), "\n")
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			buf.WriteString(t)
			buf.WriteByte('\n')
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}
