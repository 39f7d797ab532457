// Package vpath provides the virtual path algebra used by every bridge command.
//
// Virtual paths are /-rooted strings addressing nodes in a target's private
// storage tree, independent of how the backing store represents hierarchy.
// There are no . or .. semantics; paths are always absolute from the virtual
// root. Repeated slashes collapse, so "/a//b/" and "/a/b" name the same node.
package vpath

import "strings"

// Root is the canonical root path.
const Root = "/"

// Normalize returns the canonical form of a virtual path: /-rooted, no empty
// segments. The empty string and "/" both normalize to Root.
func Normalize(path string) string {
	segs := Segments(path)
	if len(segs) == 0 {
		return Root
	}
	return Root + strings.Join(segs, "/")
}

// Segments splits a virtual path into its non-empty segments. The root path
// yields an empty slice.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// IsRoot reports whether path names the virtual root after normalization.
func IsRoot(path string) bool {
	return len(Segments(path)) == 0
}

// Parent returns the parent path. The root's parent is the root itself.
func Parent(path string) string {
	segs := Segments(path)
	if len(segs) <= 1 {
		return Root
	}
	return Root + strings.Join(segs[:len(segs)-1], "/")
}

// Base returns the final segment of path. The root's basename is the empty
// string.
func Base(path string) string {
	segs := Segments(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Join appends a child name to a directory path, normalizing the result.
func Join(dir, name string) string {
	if IsRoot(dir) {
		return Normalize("/" + name)
	}
	return Normalize(dir + "/" + name)
}

// Within reports whether path names the same node as ancestor or a node
// below it, after normalization. Every path is within the root. The check
// is segment-aware: "/ab" is not within "/a".
func Within(ancestor, path string) bool {
	a := Normalize(ancestor)
	p := Normalize(path)
	if a == Root {
		return true
	}
	return p == a || strings.HasPrefix(p, a+"/")
}

// Ext returns the lowercase extension of the final segment including the dot,
// or "" when there is none.
func Ext(path string) string {
	base := Base(path)
	idx := strings.LastIndexByte(base, '.')
	if idx <= 0 || idx == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[idx:])
}
