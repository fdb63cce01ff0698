// Package preview renders the content of an open tab to HTML: Markdown through
// Goldmark with GFM extensions, everything else as highlighted source.
package preview

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"

	"github.com/CageChen/codehub/internal/pathutil"
)

// Kind tells the client how the HTML was produced.
type Kind string

// Preview kinds.
const (
	KindMarkdown Kind = "markdown"
	KindCode     Kind = "code"
)

const styleName = "monokai"

// TOCItem represents a table of contents entry
type TOCItem struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Result is a rendered preview.
type Result struct {
	Kind  Kind      `json:"kind"`
	HTML  string    `json:"html"`
	TOC   []TOCItem `json:"toc,omitempty"`
	Title string    `json:"title"`
}

// Renderer turns tab content into HTML. It is safe for concurrent use.
type Renderer struct {
	md        goldmark.Markdown
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// NewRenderer creates a renderer with GFM extensions and class-based
// highlighting.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithStyle(styleName),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	return &Renderer{
		md:        md,
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.WithLineNumbers(true)),
		style:     style,
	}
}

// Render picks Markdown or code rendering from the file name.
func (r *Renderer) Render(name, content string) (*Result, error) {
	if pathutil.LanguageForFilename(name).ID == "markdown" {
		return r.Markdown([]byte(content))
	}
	return r.Code(name, content)
}

// Markdown converts markdown source to HTML and extracts headings.
func (r *Renderer) Markdown(source []byte) (*Result, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return nil, err
	}

	toc := r.extractTOC(source)
	title := ""
	if len(toc) > 0 {
		title = toc[0].Title
	}

	return &Result{
		Kind:  KindMarkdown,
		HTML:  buf.String(),
		TOC:   toc,
		Title: title,
	}, nil
}

// Code renders content as highlighted source. The lexer is chosen from the
// file name; unknown files are rendered as plain text.
func (r *Renderer) Code(name, content string) (*Result, error) {
	lexer := lexers.Match(name)
	if lexer == nil {
		lexer = lexers.Get(pathutil.LanguageForFilename(name).ID)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, content)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, it); err != nil {
		return nil, err
	}
	return &Result{Kind: KindCode, HTML: buf.String(), Title: name}, nil
}

// CSS returns the stylesheet for the highlighting classes.
func (r *Renderer) CSS() (string, error) {
	var buf bytes.Buffer
	if err := r.formatter.WriteCSS(&buf, r.style); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractTOC walks the AST to extract headings
func (r *Renderer) extractTOC(source []byte) []TOCItem {
	doc := r.md.Parser().Parse(text.NewReader(source))

	var toc []TOCItem
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			title := extractText(heading, source)
			toc = append(toc, TOCItem{
				Level:  heading.Level,
				Title:  title,
				Anchor: generateAnchor(title),
			})
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil
	}
	return toc
}

func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

var (
	anchorInvalid = regexp.MustCompile(`[^a-z0-9\-\p{Han}\p{Hiragana}\p{Katakana}]`)
	anchorDashes  = regexp.MustCompile(`-+`)
)

// generateAnchor creates a URL-safe anchor from text
func generateAnchor(s string) string {
	anchor := strings.ToLower(s)
	anchor = strings.ReplaceAll(anchor, " ", "-")
	anchor = anchorInvalid.ReplaceAllString(anchor, "")
	anchor = anchorDashes.ReplaceAllString(anchor, "-")
	return strings.Trim(anchor, "-")
}
