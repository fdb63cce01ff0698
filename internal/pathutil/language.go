// Package pathutil holds stateless helpers for workspace paths: extension
// extraction, language classification, name validation and display formatting.
package pathutil

import (
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// Language describes how files of a given extension are edited.
type Language struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
	// Editor is the identifier the editing surface uses for syntax support.
	Editor string `json:"editor"`
}

// PlainText is returned for unknown extensions.
var PlainText = Language{ID: "plaintext", Name: "Plain Text", Extensions: []string{".txt"}, Editor: "plaintext"}

var languages = []Language{
	{ID: "javascript", Name: "JavaScript", Extensions: []string{".js", ".mjs"}, Editor: "javascript"},
	{ID: "typescript", Name: "TypeScript", Extensions: []string{".ts"}, Editor: "typescript"},
	{ID: "tsx", Name: "TypeScript React", Extensions: []string{".tsx"}, Editor: "typescript"},
	{ID: "jsx", Name: "JavaScript React", Extensions: []string{".jsx"}, Editor: "javascript"},
	{ID: "python", Name: "Python", Extensions: []string{".py", ".pyw"}, Editor: "python"},
	{ID: "java", Name: "Java", Extensions: []string{".java"}, Editor: "java"},
	{ID: "csharp", Name: "C#", Extensions: []string{".cs"}, Editor: "csharp"},
	{ID: "go", Name: "Go", Extensions: []string{".go"}, Editor: "go"},
	{ID: "rust", Name: "Rust", Extensions: []string{".rs"}, Editor: "rust"},
	{ID: "html", Name: "HTML", Extensions: []string{".html", ".htm"}, Editor: "html"},
	{ID: "css", Name: "CSS", Extensions: []string{".css"}, Editor: "css"},
	{ID: "scss", Name: "SCSS", Extensions: []string{".scss", ".sass"}, Editor: "scss"},
	{ID: "json", Name: "JSON", Extensions: []string{".json"}, Editor: "json"},
	{ID: "yaml", Name: "YAML", Extensions: []string{".yaml", ".yml"}, Editor: "yaml"},
	{ID: "xml", Name: "XML", Extensions: []string{".xml"}, Editor: "xml"},
	{ID: "markdown", Name: "Markdown", Extensions: []string{".md", ".markdown"}, Editor: "markdown"},
	{ID: "sql", Name: "SQL", Extensions: []string{".sql"}, Editor: "sql"},
	{ID: "bash", Name: "Bash", Extensions: []string{".sh", ".bash"}, Editor: "shell"},
	{ID: "powershell", Name: "PowerShell", Extensions: []string{".ps1"}, Editor: "powershell"},
	PlainText,
}

// Languages returns a copy of the built-in language table.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// Extension returns the extension of name including the leading dot.
// A leading dot alone (".gitignore") is not an extension.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return ""
	}
	return name[i:]
}

// Stem returns name without its extension.
func Stem(name string) string {
	return strings.TrimSuffix(name, Extension(name))
}

// LanguageForExtension looks ext up in the built-in table, case-insensitively.
func LanguageForExtension(ext string) Language {
	ext = strings.ToLower(ext)
	for _, lang := range languages {
		for _, e := range lang.Extensions {
			if e == ext {
				return lang
			}
		}
	}
	return PlainText
}

// LanguageForFilename classifies a file by its name. Extensions missing from
// the built-in table fall back to the chroma lexer registry so that files like
// "Makefile" or "main.c" still get a sensible editor language.
func LanguageForFilename(name string) Language {
	if lang := LanguageForExtension(Extension(name)); lang.ID != PlainText.ID || strings.EqualFold(Extension(name), ".txt") {
		return lang
	}
	lexer := lexers.Match(name)
	if lexer == nil {
		return PlainText
	}
	cfg := lexer.Config()
	id := strings.ToLower(cfg.Name)
	if len(cfg.Aliases) > 0 {
		id = cfg.Aliases[0]
	}
	if id == "plaintext" || id == "text" {
		return PlainText
	}
	var exts []string
	if ext := Extension(name); ext != "" {
		exts = []string{strings.ToLower(ext)}
	}
	return Language{ID: id, Name: cfg.Name, Extensions: exts, Editor: id}
}
