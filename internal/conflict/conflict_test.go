package conflict

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CageChen/codehub/internal/tree"
)

func siblings(specs ...string) []*tree.Node {
	var nodes []*tree.Node
	for _, s := range specs {
		kind := tree.KindFile
		name := s
		if s[len(s)-1] == '/' {
			kind = tree.KindFolder
			name = s[:len(s)-1]
		}
		nodes = append(nodes, tree.NewNode(name, kind, "", time.Time{}))
	}
	return nodes
}

func TestCheck(t *testing.T) {
	sibs := siblings("report.txt", "docs/")

	err := Check("report.txt", tree.KindFile, sibs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNameConflict))
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "/report.txt", cerr.Existing.Path)
	assert.Equal(t, "File already exists: report.txt", err.Error())

	assert.NoError(t, Check("report.txt", tree.KindFolder, sibs), "folder may share a file's name")
	assert.NoError(t, Check("docs", tree.KindFile, sibs), "file may share a folder's name")
	assert.NoError(t, Check("other.txt", tree.KindFile, sibs))

	err = Check("docs", tree.KindFolder, sibs)
	assert.EqualError(t, err, "Folder already exists: docs")
}

func TestDedupe(t *testing.T) {
	tests := []struct {
		name     string
		kind     tree.Kind
		siblings []*tree.Node
		want     string
	}{
		{"report.txt", tree.KindFile, siblings("report.txt"), "report (1).txt"},
		{"report.txt", tree.KindFile, siblings("report.txt", "report (1).txt"), "report (2).txt"},
		{"report.txt", tree.KindFile, siblings("report.txt", "report (2).txt"), "report (1).txt"},
		{"report.txt", tree.KindFile, siblings("report.txt/", "report (1).txt/"), "report.txt"},
		{"Makefile", tree.KindFile, siblings("Makefile"), "Makefile (1)"},
		{".env", tree.KindFile, siblings(".env"), ".env (1)"},
		{"v1.2", tree.KindFolder, siblings("v1.2/"), "v1.2 (1)"},
		{"free.txt", tree.KindFile, siblings("report.txt"), "free.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Dedupe(tt.name, tt.kind, tt.siblings), tt.name)
	}
}

func TestDedupeNeverCollidesAndIsStable(t *testing.T) {
	var sibs []*tree.Node
	for i := 0; i < 25; i++ {
		name := Dedupe("untitled.txt", tree.KindFile, sibs)
		require.NoError(t, Check(name, tree.KindFile, sibs), "iteration %d produced %q", i, name)
		// A name that is already unique comes back unchanged.
		assert.Equal(t, name, Dedupe(name, tree.KindFile, sibs))
		sibs = append(sibs, tree.NewNode(name, tree.KindFile, "", time.Time{}))
	}
	assert.Equal(t, fmt.Sprintf("untitled (%d).txt", 24), sibs[24].Name)
}
