package pathutil

import "strings"

// Root is the workspace root. It is never a node itself.
const Root = "/"

// Join builds the absolute path of name inside parent. An empty parent or
// "/" means the workspace root.
func Join(parent, name string) string {
	if parent == "" || parent == Root {
		return Root + name
	}
	return parent + "/" + name
}

// Parent returns the parent path of p, or "" for root-level paths.
func Parent(p string) string {
	i := strings.LastIndexByte(p, '/')
	if i <= 0 {
		return ""
	}
	return p[:i]
}

// Base returns the last element of p.
func Base(p string) string {
	return p[strings.LastIndexByte(p, '/')+1:]
}

// IsWithin reports whether p equals prefix or lies beneath it.
func IsWithin(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// RewritePrefix replaces the leading oldPrefix of p with newPrefix.
// Paths outside oldPrefix are returned unchanged.
func RewritePrefix(p, oldPrefix, newPrefix string) string {
	if !IsWithin(p, oldPrefix) {
		return p
	}
	return newPrefix + p[len(oldPrefix):]
}

// Clean normalises a client-supplied path: forces a leading slash, drops
// trailing and duplicate slashes as well as "." and ".." segments, so the
// result never climbs above the root. "" and "/" both yield "/".
func Clean(p string) string {
	parts := strings.Split(p, "/")
	kept := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." && part != ".." {
			kept = append(kept, part)
		}
	}
	return Root + strings.Join(kept, "/")
}
