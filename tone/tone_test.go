package tone_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabfab/herhaq/config"
	"github.com/fabfab/herhaq/tone"
)

const (
	intro   = "Behn, himmat na haaro! Yeh maloomat aap ke liye hai:"
	closing = "Aap apne haqooq jaanti rahiye, hum aap ke saath hain! 💪"
)

func TestApplyEmptyText(t *testing.T) {
	got := tone.Default().Apply("")
	assert.Equal(t, intro+"\n\n"+"\n\n\n"+closing, got)
	assert.NotContains(t, got, "(")
}

func TestApplyGlossesTermsOnceInOrder(t *testing.T) {
	got := tone.Default().Apply("support the rights of women")

	require.True(t, strings.HasPrefix(got, intro+"\n\n"))
	require.True(t, strings.HasSuffix(got, "\n\n\n"+closing))

	terms := []string{"support (madad)", "rights (haqooq)", "women (khawateen)"}
	last := -1
	for _, term := range terms {
		assert.Equal(t, 1, strings.Count(got, term), term)
		idx := strings.Index(got, term)
		assert.Greater(t, idx, last, "terms out of order")
		last = idx
	}
	assert.Contains(t, got, "support (madad) the rights (haqooq) of women (khawateen)")
}

func TestApplyIsCaseSensitiveSubstringMatch(t *testing.T) {
	got := tone.Default().Apply("Rights and birthrights")
	assert.Contains(t, got, "Rights and birthrights (haqooq)")
	assert.NotContains(t, got, "Rights (haqooq)")
}

func TestApplyFollowsGlossaryOrder(t *testing.T) {
	p := tone.Processor{
		Glossary: []config.Gloss{
			{Term: "help", Gloss: "support"},
			{Term: "support", Gloss: "madad"},
		},
	}
	got := p.Apply("help")
	assert.Equal(t, "\n\nhelp (support (madad))\n\n\n", got)
}

func TestApplyIsDeterministic(t *testing.T) {
	p := tone.Default()
	text := "We help women facing harassment at work."
	assert.Equal(t, p.Apply(text), p.Apply(text))
	assert.Contains(t, p.Apply(text), "harassment (tang karna)")
	assert.Contains(t, p.Apply(text), "help (madad)")
}

func TestNewUsesPersonaConfig(t *testing.T) {
	p := tone.New(config.PersonaConfig{
		Intro:    "Hi",
		Closing:  "Bye",
		Glossary: []config.Gloss{{Term: "law", Gloss: "qanoon"}},
	})
	assert.Equal(t, "Hi\n\nlaw (qanoon)\n\n\nBye", p.Apply("law"))
}
