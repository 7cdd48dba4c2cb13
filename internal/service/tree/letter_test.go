package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetterIndex(t *testing.T) {
	cases := map[int]string{
		-1:  "",
		0:   "a",
		1:   "b",
		25:  "z",
		26:  "aa",
		27:  "ab",
		51:  "az",
		52:  "ba",
		701: "zz",
		702: "aaa",
	}
	for in, want := range cases {
		assert.Equal(t, want, LetterIndex(in), "LetterIndex(%d)", in)
	}
}

func TestLetterIndexIsInjective(t *testing.T) {
	seen := make(map[string]int, 2000)
	for i := 0; i < 2000; i++ {
		l := LetterIndex(i)
		prev, dup := seen[l]
		assert.False(t, dup, "%d and %d both map to %q", prev, i, l)
		seen[l] = i
	}
}
