package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	s, truncated := Truncate("hello", 10)
	require.Equal(t, "hello", s)
	require.False(t, truncated)

	s, truncated = Truncate("hello", 5)
	require.Equal(t, "hello", s)
	require.False(t, truncated)

	s, truncated = Truncate("hello world", 5)
	require.Equal(t, "hello", s)
	require.True(t, truncated)

	s, truncated = Truncate("hello", 0)
	require.Equal(t, "hello", s)
	require.False(t, truncated)

	s, truncated = Truncate("héllo", 2)
	require.Equal(t, "hé", s)
	require.True(t, truncated)
}

func TestClip(t *testing.T) {
	require.Equal(t, "short", Clip("short", 10, Ellipsis))
	require.Equal(t, "hello…", Clip("hello world", 6, Ellipsis))
	require.Equal(t, "ab [more]", Clip("ab cdefghijkl", 9, " [more]"))
	require.Len(t, []rune(Clip("abcdefghijklmnop", 8, Ellipsis)), 8)
}

func TestOneLine(t *testing.T) {
	require.Equal(t, "a b c", OneLine("  a\n\tb   c \n"))
}
