package vpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"//", "/"},
		{"a", "/a"},
		{"/a", "/a"},
		{"/a/", "/a"},
		{"/a//b/", "/a/b"},
		{"a/b/c", "/a/b/c"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Normalize(c.in), "input %q", c.in)
	}
}

func TestSegments(t *testing.T) {
	assert.Empty(t, Segments("/"))
	assert.Empty(t, Segments(""))
	assert.Equal(t, []string{"a", "b"}, Segments("/a//b/"))
	assert.Equal(t, []string{"docs", "readme.txt"}, Segments("docs/readme.txt"))
}

func TestParentAndBase(t *testing.T) {
	assert.Equal(t, "/", Parent("/"))
	assert.Equal(t, "/", Parent("/a"))
	assert.Equal(t, "/a", Parent("/a/b"))
	assert.Equal(t, "/a/b", Parent("/a/b/c.txt"))

	assert.Equal(t, "", Base("/"))
	assert.Equal(t, "a", Base("/a"))
	assert.Equal(t, "c.txt", Base("/a/b/c.txt"))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/a", Join("/", "a"))
	assert.Equal(t, "/a/b", Join("/a", "b"))
	assert.Equal(t, "/a/b", Join("/a/", "b"))
}

func TestExt(t *testing.T) {
	assert.Equal(t, ".txt", Ext("/a/b/c.TXT"))
	assert.Equal(t, ".gz", Ext("/archive.tar.gz"))
	assert.Equal(t, "", Ext("/noext"))
	assert.Equal(t, "", Ext("/.hidden"))
	assert.Equal(t, "", Ext("/"))
}

func TestWithin(t *testing.T) {
	cases := []struct {
		ancestor string
		path     string
		want     bool
	}{
		{"/", "/", true},
		{"/", "/a", true},
		{"/a", "/a", true},
		{"/a", "/a/b", true},
		{"/a", "/a//b/", true},
		{"/a", "/ab", false},
		{"/a", "/", false},
		{"/a", "/b/a", false},
		{"/a/b", "/a", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Within(c.ancestor, c.path), "ancestor %q path %q", c.ancestor, c.path)
	}
}

func TestIsRoot(t *testing.T) {
	assert.True(t, IsRoot(""))
	assert.True(t, IsRoot("/"))
	assert.True(t, IsRoot("//"))
	assert.False(t, IsRoot("/a"))
}
