package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPath_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"//", "/"},
		{"/a", "/a"},
		{"a", "/a"},
		{"/a/", "/a"},
		{"//a///b//", "/a/b"},
		{"/a/./b", "/a/b"},
		{"/a/../b", "/b"},
		{"/../..", "/"},
		{"/a/b/../../c", "/c"},
		{"/boot.cfg", "/boot.cfg"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanPath(tt.in), "CleanPath(%q)", tt.in)
	}
}

func TestSplitPath_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		wantDir  string
		wantLeaf string
	}{
		{"/", "/", ""},
		{"/a", "/", "a"},
		{"/a/b", "/a", "b"},
		{"//a//b/", "/a", "b"},
		{"/a/b/c.txt", "/a/b", "c.txt"},
	}

	for _, tt := range tests {
		dir, leaf := SplitPath(tt.in)
		assert.Equal(t, tt.wantDir, dir, "SplitPath(%q) dir", tt.in)
		assert.Equal(t, tt.wantLeaf, leaf, "SplitPath(%q) leaf", tt.in)
	}
}

func TestIsAbs_Success(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAbs("/"))
	assert.True(t, IsAbs("/a/b"))
	assert.False(t, IsAbs(""))
	assert.False(t, IsAbs("a/b"))
}

func TestPathHasPrefix_Success(t *testing.T) {
	t.Parallel()

	assert.True(t, pathHasPrefix("/a/b", "/"))
	assert.True(t, pathHasPrefix("/a/b", "/a"))
	assert.True(t, pathHasPrefix("/a", "/a"))
	assert.False(t, pathHasPrefix("/ab", "/a"), "segment boundaries must be respected")
	assert.False(t, pathHasPrefix("/b", "/a"))
}
