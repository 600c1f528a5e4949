package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabfab/herhaq/chat"
	"github.com/fabfab/herhaq/tone"
)

type stubEngine struct {
	answer string
	err    error
	asked  []string
}

func (s *stubEngine) Chat(_ context.Context, question string, _ chat.Config) (chat.Response, error) {
	s.asked = append(s.asked, question)
	if s.err != nil {
		return chat.Response{}, s.err
	}
	return chat.Response{Answer: s.answer, Sources: []chat.Source{{Title: "Rights", Path: "rights.txt", Score: 0.9}}}, nil
}

func sized(m Model) Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return next.(Model)
}

func typeQuestion(m Model, q string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(q)})
	return next.(Model)
}

func TestEnterAsksAndRendersAnswer(t *testing.T) {
	engine := &stubEngine{answer: "You have rights at work."}
	m := sized(New(engine, tone.Default(), "2 documents", 0, zerolog.Nop()))
	m = typeQuestion(m, "What rights do women have?")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.pending)
	assert.Empty(t, m.input.Value())

	next, _ = m.Update(cmd())
	m = next.(Model)
	assert.False(t, m.pending)
	assert.Equal(t, []string{"What rights do women have?"}, engine.asked)

	transcript := m.renderTranscript()
	assert.Contains(t, transcript, "rights (haqooq) at work.")
	assert.Contains(t, transcript, "rights.txt")
	assert.True(t, strings.Contains(m.View(), "HerHaq"))
}

func TestToneToggle(t *testing.T) {
	engine := &stubEngine{answer: "We support you."}
	m := sized(New(engine, tone.Default(), "", 0, zerolog.Nop()))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m = next.(Model)
	assert.False(t, m.useTone)

	next, _ = m.Update(answerMsg{question: "q", resp: chat.Response{Answer: "We support you."}})
	m = next.(Model)
	assert.NotContains(t, m.renderTranscript(), "(madad)")
}

func TestEngineErrorIsHiddenAndLogged(t *testing.T) {
	var logs bytes.Buffer
	m := sized(New(&stubEngine{}, tone.Default(), "", 0, zerolog.New(&logs)))

	err := &chat.GenerationError{Err: errors.New("status 429: quota exceeded for key sk-live-123")}
	next, _ := m.Update(answerMsg{question: "What are my rights?", err: err})
	m = next.(Model)

	transcript := m.renderTranscript()
	assert.Contains(t, m.status, "Sorry behn")
	assert.Contains(t, transcript, "Sorry behn, kuch masla ho gaya.")
	assert.NotContains(t, transcript, "429")
	assert.NotContains(t, transcript, "sk-live-123")
	assert.NotContains(t, m.View(), "sk-live-123")
	assert.Contains(t, logs.String(), "quota exceeded")
}

func TestBlankEnterDoesNothing(t *testing.T) {
	m := sized(New(&stubEngine{}, tone.Default(), "", 0, zerolog.Nop()))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, next.(Model).pending)
}
