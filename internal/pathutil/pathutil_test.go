package pathutil

import (
	"errors"
	"testing"
	"time"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"main.go", ".go"},
		{"archive.tar.gz", ".gz"},
		{".gitignore", ""},
		{"Makefile", ""},
		{"trailing.", "."},
	}
	for _, tt := range tests {
		if got := Extension(tt.name); got != tt.want {
			t.Errorf("Extension(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLanguageForFilename(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		editor string
	}{
		{"index.ts", "typescript", "typescript"},
		{"App.TSX", "tsx", "typescript"},
		{"script.sh", "bash", "shell"},
		{"README.md", "markdown", "markdown"},
		{"notes.txt", "plaintext", "plaintext"},
		{"data.unknownext", "plaintext", "plaintext"},
		{"main.c", "c", "c"},
	}
	for _, tt := range tests {
		got := LanguageForFilename(tt.name)
		if got.ID != tt.id || got.Editor != tt.editor {
			t.Errorf("LanguageForFilename(%q) = %s/%s, want %s/%s", tt.name, got.ID, got.Editor, tt.id, tt.editor)
		}
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name string
		want error
	}{
		{"report.txt", nil},
		{"New Folder", nil},
		{"", ErrEmptyName},
		{"   ", ErrEmptyName},
		{"a/b", ErrInvalidChars},
		{"what?", ErrInvalidChars},
		{"tab\tname", ErrInvalidChars},
		{"..", ErrInvalidChars},
		{"CON", ErrReservedName},
		{"lpt1.txt", ErrReservedName},
		{"console.log", nil},
	}
	for _, tt := range tests {
		err := ValidateName(tt.name)
		if tt.want == nil {
			if err != nil {
				t.Errorf("ValidateName(%q) = %v, want nil", tt.name, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("ValidateName(%q) = %v, want %v", tt.name, err, tt.want)
		}
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Name != tt.name {
			t.Errorf("ValidateName(%q) did not return a *ValidationError", tt.name)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5 MB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-2 * time.Hour), "10:00"},
		{now.Add(-30 * time.Hour), "Yesterday"},
		{now.Add(-4 * 24 * time.Hour), "4 days ago"},
		{now.Add(-30 * 24 * time.Hour), "Feb 9, 2024"},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.t, now); got != tt.want {
			t.Errorf("FormatDate(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestPaths(t *testing.T) {
	if got := Join("/", "a.txt"); got != "/a.txt" {
		t.Errorf("Join root = %q", got)
	}
	if got := Join("", "a.txt"); got != "/a.txt" {
		t.Errorf("Join empty = %q", got)
	}
	if got := Join("/src", "a.ts"); got != "/src/a.ts" {
		t.Errorf("Join nested = %q", got)
	}
	if got := Parent("/a.txt"); got != "" {
		t.Errorf("Parent root-level = %q, want empty", got)
	}
	if got := Parent("/src/lib/a.ts"); got != "/src/lib" {
		t.Errorf("Parent nested = %q", got)
	}
	if got := Base("/src/a.ts"); got != "a.ts" {
		t.Errorf("Base = %q", got)
	}
	if !IsWithin("/src/a.ts", "/src") || !IsWithin("/src", "/src") {
		t.Error("expected /src and /src/a.ts within /src")
	}
	if IsWithin("/srcx/a.ts", "/src") {
		t.Error("/srcx/a.ts must not be within /src")
	}
	if got := RewritePrefix("/src/a.ts", "/src", "/lib"); got != "/lib/a.ts" {
		t.Errorf("RewritePrefix = %q", got)
	}
	if got := RewritePrefix("/other/a.ts", "/src", "/lib"); got != "/other/a.ts" {
		t.Errorf("RewritePrefix outside = %q", got)
	}
	if got := Clean("src//a.ts/"); got != "/src/a.ts" {
		t.Errorf("Clean = %q", got)
	}
	if got := Clean("/../etc/../passwd"); got != "/etc/passwd" {
		t.Errorf("Clean traversal = %q", got)
	}
	if got := Clean(""); got != "/" {
		t.Errorf("Clean empty = %q", got)
	}
}

func TestDefaultContent(t *testing.T) {
	if got := string(DefaultContent("a.md")); got != "# Markdown File\n\n" {
		t.Errorf("markdown template = %q", got)
	}
	if got := DefaultContent("a.txt"); len(got) != 0 {
		t.Errorf("plain text template = %q, want empty", got)
	}
	if got := string(DefaultContent("x.tsx")); got != "// TypeScript file\n\nexport {}\n" {
		t.Errorf("tsx template = %q", got)
	}
}
