package spam

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "hello world", "hello world", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "hello", "", 0.0},
		{"completely different same length", "aaaa", "bbbb", 0.0},
		{"one char off", "kitten", "sitten", 1.0 - 1.0/6.0},
		{"classic distance three", "kitten", "sitting", 1.0 - 3.0/7.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, editSimilarity(tc.a, tc.b), 1e-9)
		})
	}
}

func TestEditSimilaritySymmetric(t *testing.T) {
	a, b := "buy cheap watches today", "buy cheap watches now"
	assert.Equal(t, editSimilarity(a, b), editSimilarity(b, a))
}

func TestEditSimilarityNearDuplicate(t *testing.T) {
	a := "check out my awesome new website for great deals"
	b := "check out my awesome new website for great dealz"
	assert.GreaterOrEqual(t, editSimilarity(a, b), 0.85)

	c := "the weather has been really nice this whole week"
	assert.Less(t, editSimilarity(a, c), 0.85)
}
