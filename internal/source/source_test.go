// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestBoundTextShortInputUnchanged(t *testing.T) {
	assert.Equal(t, "short", boundText("short", 10))
	assert.Equal(t, "exact", boundText("exact", 5))
}

func TestBoundTextCutsOnRuneBoundaries(t *testing.T) {
	long := strings.Repeat("研究データ", 50)

	got := boundText(long, 20)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 20, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestBoundTextCountsRunesNotBytes(t *testing.T) {
	// 10 runes but 30 bytes; a byte-based bound would cut it.
	text := strings.Repeat("語", 10)

	assert.Equal(t, text, boundText(text, 10))
}

func TestBoundTextTinyMax(t *testing.T) {
	// Bounds at or below the ellipsis length are ignored rather than
	// producing a negative slice.
	assert.Equal(t, "anything", boundText("anything", 3))
	assert.Equal(t, "anything", boundText("anything", 0))
}

func TestPositionScore(t *testing.T) {
	assert.InDelta(t, 1.0, positionScore(0, 1), 1e-9)
	assert.InDelta(t, 1.0, positionScore(0, 5), 1e-9)
	assert.InDelta(t, 0.1, positionScore(4, 5), 1e-9)
}
