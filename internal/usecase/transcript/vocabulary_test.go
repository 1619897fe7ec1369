package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhoneticVariants(t *testing.T) {
	tests := []struct {
		word string
		want []string
	}{
		{word: "Kubernetes", want: []string{"kubernetes", "kubirnitis"}},
		{word: "Nick", want: []string{"nick", "nik"}},
		{word: "Jenna", want: []string{"jenna", "jinna", "jena"}},
		{word: "Lockett", want: []string{"lockett", "lockitt", "locket", "lokett"}},
		{word: "SQL", want: []string{"sql"}},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, PhoneticVariants(tt.word))
		})
	}
}

func TestApplyCustomWords_RoundTrip(t *testing.T) {
	words := []string{"Kubernetes", "Nick", "Lockett", "Jenna"}
	canonical := "Kubernetes rollout owned by Nick Lockett and Jenna."

	assert.Equal(t, canonical, ApplyCustomWords(canonical, words))

	for _, w := range words {
		for _, v := range PhoneticVariants(w) {
			got := ApplyCustomWords("ask "+v+" today", words)
			assert.Equal(t, "ask "+w+" today", got, "variant %q of %q", v, w)
		}
	}
}

func TestApplyCustomWords_CaseInsensitiveWholeWord(t *testing.T) {
	words := []string{"Nick"}

	assert.Equal(t, "Nick said hi", ApplyCustomWords("NIK said hi", words))
	assert.Equal(t, "nickname stays", ApplyCustomWords("nickname stays", words))
	assert.Equal(t, "Nick, Nick.", ApplyCustomWords("nick, nik.", words))
}

func TestApplyCustomWords_Empty(t *testing.T) {
	assert.Equal(t, "unchanged", ApplyCustomWords("unchanged", nil))
	assert.Equal(t, "", ApplyCustomWords("", []string{"Nick"}))
}

func TestApplyCustomWords_CollidingWords(t *testing.T) {
	// "bin" is both a word of its own and the e→i variant of "Ben"
	words := []string{"Ben", "Bin"}

	assert.Equal(t, "Ben and Bin", ApplyCustomWords("Ben and Bin", words))
	assert.Equal(t, "Bin and Ben", ApplyCustomWords("Bin and Ben", words))
	assert.Equal(t, "Ben met Bin", ApplyCustomWords("BEN met bin", words))
}

func TestApplyCustomWords_UnicodeWordBoundaries(t *testing.T) {
	words := []string{"Zoë"}

	assert.Equal(t, "the zoëtrope spun", ApplyCustomWords("the zoëtrope spun", words))
	assert.Equal(t, "ask Zoë today", ApplyCustomWords("ask ZOË today", words))
	assert.Equal(t, "überzoë stays", ApplyCustomWords("überzoë stays", words))
	assert.Equal(t, "Zoë, Zoë.", ApplyCustomWords("zoë, zoë.", words))
}

func TestCorrector_EveryMatchReplacedOnce(t *testing.T) {
	c := NewCorrector([]string{"Jenna", "Nick"})

	assert.Equal(t, "Jenna Nick Jenna", c.Apply("jena nik jinna"))
	assert.Equal(t, "Nick", c.Apply(c.Apply("nik")))
}
