// Package pdf converts roadmap Markdown into a paginated PDF byte
// stream. The same Markdown string that drives the on-screen render is
// parsed here, so the two outputs can never drift apart.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	bodyFont = "Helvetica"
	codeFont = "Courier"

	bodySize   = 11.0
	codeSize   = 9.5
	bodyHeight = 5.5
	codeHeight = 4.8
)

// Renderer renders Markdown to PDF with a one-level table of contents:
// top-level headings become PDF outline bookmarks.
type Renderer struct {
	tocLevel int
}

// NewRenderer creates a renderer with the default single TOC level.
func NewRenderer() *Renderer {
	return &Renderer{tocLevel: 1}
}

// Render produces the full PDF byte stream for one document.
func (r *Renderer) Render(markdown string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Learning Roadmap", true)
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	source := []byte(markdown)
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	w := &walker{
		doc:      doc,
		tr:       doc.UnicodeTranslatorFromDescriptor(""),
		source:   source,
		tocLevel: r.tocLevel,
	}
	w.blocks(root, 0)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// walker emits goldmark block and inline nodes into the document.
type walker struct {
	doc      *fpdf.Fpdf
	tr       func(string) string
	source   []byte
	tocLevel int
}

func (w *walker) blocks(parent ast.Node, indent float64) {
	for node := parent.FirstChild(); node != nil; node = node.NextSibling() {
		w.block(node, indent)
	}
}

func (w *walker) block(node ast.Node, indent float64) {
	switch n := node.(type) {
	case *ast.Heading:
		w.heading(n)
	case *ast.Paragraph, *ast.TextBlock:
		w.doc.SetX(w.doc.GetX() + indent)
		w.doc.SetFont(bodyFont, "", bodySize)
		w.inlines(node, "")
		w.doc.Ln(bodyHeight)
		w.doc.Ln(1.5)
	case *ast.List:
		w.list(n, indent)
	case *ast.FencedCodeBlock:
		w.codeLines(n.Lines(), indent)
	case *ast.CodeBlock:
		w.codeLines(n.Lines(), indent)
	case *ast.Blockquote:
		w.blocks(n, indent+6)
	case *ast.ThematicBreak:
		w.rule()
	default:
		// Anything unrecognized still contributes its text.
		if node.HasChildren() {
			w.blocks(node, indent)
		}
	}
}

func (w *walker) heading(h *ast.Heading) {
	sizes := map[int]float64{1: 20, 2: 16, 3: 13.5}
	size, ok := sizes[h.Level]
	if !ok {
		size = 12
	}

	w.doc.Ln(2)
	w.doc.SetFont(bodyFont, "B", size)
	if h.Level <= w.tocLevel {
		w.doc.Bookmark(w.tr(w.plainText(h)), h.Level-1, -1)
	}
	w.inlines(h, "B")
	w.doc.Ln(size * 0.5)
	w.doc.Ln(2)
}

func (w *walker) list(l *ast.List, indent float64) {
	index := l.Start
	if index == 0 {
		index = 1
	}
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "- "
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d. ", index)
			index++
		}

		for child := item.FirstChild(); child != nil; child = child.NextSibling() {
			switch c := child.(type) {
			case *ast.List:
				w.list(c, indent+6)
			case *ast.Paragraph, *ast.TextBlock:
				w.doc.SetX(w.doc.GetX() + indent + 4)
				w.doc.SetFont(bodyFont, "", bodySize)
				w.doc.Write(bodyHeight, w.tr(marker))
				marker = "  " // continuation blocks hang under the text
				w.inlines(child, "")
				w.doc.Ln(bodyHeight)
			default:
				w.block(child, indent+8)
			}
		}
	}
	w.doc.Ln(1.5)
}

func (w *walker) codeLines(lines *text.Segments, indent float64) {
	w.doc.SetFont(codeFont, "", codeSize)
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		line := strings.TrimRight(string(segment.Value(w.source)), "\n")
		w.doc.SetX(w.doc.GetX() + indent + 4)
		w.doc.MultiCell(0, codeHeight, w.tr(line), "", "L", false)
	}
	w.doc.SetFont(bodyFont, "", bodySize)
	w.doc.Ln(1.5)
}

func (w *walker) rule() {
	w.doc.Ln(2)
	left, _, right, _ := w.doc.GetMargins()
	pageWidth, _ := w.doc.GetPageSize()
	y := w.doc.GetY()
	w.doc.Line(left, y, pageWidth-right, y)
	w.doc.Ln(3)
}

// inlines writes the inline content of a block, switching font styles
// for emphasis and code spans. The style string accumulates "B"/"I"
// flags through nesting.
func (w *walker) inlines(parent ast.Node, style string) {
	for node := parent.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Text:
			w.doc.Write(bodyHeight, w.tr(string(n.Segment.Value(w.source))))
			if n.SoftLineBreak() {
				w.doc.Write(bodyHeight, " ")
			}
			if n.HardLineBreak() {
				w.doc.Ln(bodyHeight)
			}
		case *ast.String:
			w.doc.Write(bodyHeight, w.tr(string(n.Value)))
		case *ast.Emphasis:
			flag := "I"
			if n.Level >= 2 {
				flag = "B"
			}
			nested := style + flag
			w.doc.SetFontStyle(nested)
			w.inlines(n, nested)
			w.doc.SetFontStyle(style)
		case *ast.CodeSpan:
			w.doc.SetFont(codeFont, style, codeSize)
			w.inlines(n, style)
			w.doc.SetFont(bodyFont, style, bodySize)
		case *ast.Link:
			w.inlines(n, style)
		case *ast.AutoLink:
			w.doc.Write(bodyHeight, w.tr(string(n.URL(w.source))))
		case *ast.Image:
			// Images are dropped; the alt text still renders.
			w.inlines(n, style)
		default:
			if node.HasChildren() {
				w.inlines(node, style)
			}
		}
	}
}

// plainText flattens a node's inline content for bookmarks.
func (w *walker) plainText(node ast.Node) string {
	var sb strings.Builder
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(w.source))
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
