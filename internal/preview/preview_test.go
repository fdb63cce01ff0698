package preview

import (
	"strings"
	"testing"
)

func TestMarkdown(t *testing.T) {
	r := NewRenderer()
	result, err := r.Markdown([]byte("# Hello World\n\nThis is a *test*."))
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}

	if result.Kind != KindMarkdown {
		t.Errorf("expected markdown kind, got %s", result.Kind)
	}
	if !strings.Contains(result.HTML, "<h1") || !strings.Contains(result.HTML, "Hello World</h1>") {
		t.Error("expected H1 tag containing 'Hello World' in HTML")
	}
	if !strings.Contains(result.HTML, "<em>test</em>") {
		t.Error("expected italicized test in HTML")
	}
	if result.Title != "Hello World" {
		t.Errorf("expected title Hello World, got %s", result.Title)
	}
}

func TestMarkdown_RawHTMLOmitted(t *testing.T) {
	r := NewRenderer()
	result, err := r.Markdown([]byte("<script>alert(1)</script>\n"))
	if err != nil {
		t.Fatalf("Markdown failed: %v", err)
	}
	if strings.Contains(result.HTML, "<script>") {
		t.Error("raw HTML from tab content must not be passed through")
	}
}

func TestExtractTOC(t *testing.T) {
	r := NewRenderer()
	toc := r.extractTOC([]byte("# Head 1\n## Head 2\n### Head 3"))
	if len(toc) != 3 {
		t.Fatalf("expected 3 TOC items, got %d", len(toc))
	}
	for i, want := range []TOCItem{
		{Level: 1, Title: "Head 1", Anchor: "head-1"},
		{Level: 2, Title: "Head 2", Anchor: "head-2"},
		{Level: 3, Title: "Head 3", Anchor: "head-3"},
	} {
		if toc[i] != want {
			t.Errorf("TOC item %d = %+v, want %+v", i, toc[i], want)
		}
	}
}

func TestGenerateAnchor(t *testing.T) {
	tests := []struct {
		input  string
		output string
	}{
		{"Hello World", "hello-world"},
		{"Test! @# Content", "test-content"},
		{"Multiple   Spaces", "multiple-spaces"},
		{"-Start-and-End-", "start-and-end"},
		{"中文标题", "中文标题"},
	}

	for _, tt := range tests {
		if got := generateAnchor(tt.input); got != tt.output {
			t.Errorf("generateAnchor(%q) = %q, want %q", tt.input, got, tt.output)
		}
	}
}

func TestRender_PicksByName(t *testing.T) {
	r := NewRenderer()

	md, err := r.Render("README.md", "# Title\n")
	if err != nil {
		t.Fatalf("Render md failed: %v", err)
	}
	if md.Kind != KindMarkdown {
		t.Errorf("README.md rendered as %s", md.Kind)
	}

	code, err := r.Render("main.go", "package main\n\nfunc main() {}\n")
	if err != nil {
		t.Fatalf("Render go failed: %v", err)
	}
	if code.Kind != KindCode || code.Title != "main.go" {
		t.Errorf("main.go rendered as %+v", code)
	}
	if !strings.Contains(code.HTML, "chroma") {
		t.Error("expected chroma classes in code preview")
	}
	if !strings.Contains(code.HTML, "func") {
		t.Error("expected source text in code preview")
	}
}

func TestCode_UnknownFallsBack(t *testing.T) {
	r := NewRenderer()
	res, err := r.Code("notes.unknownext", "just <text>")
	if err != nil {
		t.Fatalf("Code failed: %v", err)
	}
	if !strings.Contains(res.HTML, "just &lt;text&gt;") {
		t.Errorf("expected escaped text, got %s", res.HTML)
	}
}

func TestCSS(t *testing.T) {
	css, err := NewRenderer().CSS()
	if err != nil {
		t.Fatalf("CSS failed: %v", err)
	}
	if !strings.Contains(css, ".chroma") {
		t.Error("expected .chroma rules in stylesheet")
	}
}
