// Package tone wraps generated answers in the persona voice: a fixed intro,
// a fixed closing line and inline bilingual glosses.
package tone

import (
	"strings"

	"github.com/fabfab/herhaq/config"
)

type Processor struct {
	Intro    string
	Closing  string
	Glossary []config.Gloss
}

// Default returns the processor built from the default persona settings.
func Default() Processor {
	cfg := config.Default()
	return New(cfg.Persona)
}

func New(persona config.PersonaConfig) Processor {
	glossary := make([]config.Gloss, len(persona.Glossary))
	copy(glossary, persona.Glossary)
	return Processor{
		Intro:    persona.Intro,
		Closing:  persona.Closing,
		Glossary: glossary,
	}
}

// Apply wraps text and then glosses every exact, case-sensitive occurrence of
// each term, one term at a time in glossary order. Terms inside longer words
// and inside the intro or closing are glossed too.
func (p Processor) Apply(text string) string {
	out := p.Intro + "\n\n" + text + "\n" + "\n\n" + p.Closing
	for _, entry := range p.Glossary {
		if entry.Term == "" {
			continue
		}
		out = strings.ReplaceAll(out, entry.Term, entry.Term+" ("+entry.Gloss+")")
	}
	return out
}
