package store

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/CageChen/codehub/internal/pathutil"
	"github.com/CageChen/codehub/internal/tree"
)

// Git serves a workspace from a git ref (branch, tag or commit). It is
// read-only: writes fail with ErrReadOnly, which leaves the saving tab dirty.
type Git struct {
	repoPath string
	ref      string
}

// NewGit creates a Git store reading from ref in the repository at repoPath.
func NewGit(repoPath, ref string) *Git {
	return &Git{repoPath: repoPath, ref: ref}
}

func (g *Git) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", g.repoPath}, args...)...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git %s: %s", args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// object maps a workspace path to the "<ref>:<path>" object name.
func (g *Git) object(p string) string {
	return g.ref + ":" + strings.TrimPrefix(pathutil.Clean(p), "/")
}

func (g *Git) Read(ctx context.Context, p string) ([]byte, error) {
	if !g.Exists(ctx, p) {
		return template(p), nil
	}
	out, err := g.git(ctx, "show", g.object(p))
	if err != nil {
		return nil, &Error{Op: "read", Path: p, Err: err}
	}
	return []byte(out), nil
}

func (g *Git) Write(_ context.Context, p string, _ []byte) error {
	return &Error{Op: "write", Path: p, Err: ErrReadOnly}
}

func (g *Git) Remove(_ context.Context, p string) error {
	return &Error{Op: "remove", Path: p, Err: ErrReadOnly}
}

func (g *Git) Exists(ctx context.Context, p string) bool {
	_, err := g.git(ctx, "cat-file", "-e", g.object(p))
	return err == nil
}

func (g *Git) Stat(ctx context.Context, p string) (Stat, error) {
	if !g.Exists(ctx, p) {
		return Stat{Size: int64(len(template(p)))}, nil
	}
	st := Stat{LastModifiedAt: g.modTime(ctx, p)}
	typ, err := g.git(ctx, "cat-file", "-t", g.object(p))
	if err != nil {
		return Stat{}, &Error{Op: "stat", Path: p, Err: err}
	}
	if strings.TrimSpace(typ) == "blob" {
		out, err := g.git(ctx, "cat-file", "-s", g.object(p))
		if err != nil {
			return Stat{}, &Error{Op: "stat", Path: p, Err: err}
		}
		st.Size, _ = strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	}
	return st, nil
}

// List enumerates every tree and blob reachable from the ref.
func (g *Git) List(ctx context.Context) ([]tree.Entry, error) {
	out, err := g.git(ctx, "ls-tree", "-r", "-t", "-l", g.ref)
	if err != nil {
		return nil, &Error{Op: "list", Path: pathutil.Root, Err: err}
	}
	mod := g.modTime(ctx, "")
	var entries []tree.Entry
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		// Format: "<mode> <type> <hash> <size>\t<path>"
		meta, name, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) < 4 {
			continue
		}
		e := tree.Entry{Path: pathutil.Clean(name), IsDir: fields[1] == "tree", ModTime: mod}
		if fields[1] == "blob" {
			e.Size, _ = strconv.ParseInt(fields[3], 10, 64)
		} else if fields[1] != "tree" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (g *Git) modTime(ctx context.Context, p string) time.Time {
	args := []string{"log", "-1", "--format=%ct", g.ref}
	if rel := strings.TrimPrefix(pathutil.Clean(p), "/"); rel != "" {
		args = append(args, "--", rel)
	}
	out, err := g.git(ctx, args...)
	if err != nil {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
