package status

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/spo/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/spo/internal/adapters/driving/tui/styles"
)

func TestNewBar(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateRunning, bar.State())
	assert.Equal(t, "", bar.Message())
	rounds, accepted := bar.Counts()
	assert.Zero(t, rounds)
	assert.Zero(t, accepted)
}

func TestNewBar_NilStyles(t *testing.T) {
	bar := NewBar(nil, nil)

	require.NotNil(t, bar)
	assert.NotNil(t, bar.styles)
	assert.NotNil(t, bar.keymap)
}

func TestStatusBar_InitAndUpdate(t *testing.T) {
	bar := NewBar(nil, nil)

	assert.Nil(t, bar.Init())
	updated, cmd := bar.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, bar, updated)
	assert.Nil(t, cmd)
}

func TestStatusBar_View(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		want    string
	}{
		{"running", StateRunning, "", "2 rounds, 1 accepted"},
		{"done", StateDone, "", "Done: 2 rounds, 1 accepted"},
		{"stopped", StateStopped, "", "Stopped: 2 rounds, 1 accepted"},
		{"error with message", StateError, "model down", "Error: model down"},
		{"error without message", StateError, "", "Error"},
		{"quitting", StateQuitting, "", "Stopping..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetWidth(120)
			bar.SetCounts(2, 1)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)

			view := bar.View()
			assert.Contains(t, view, tt.want)
			assert.Contains(t, view, "q: quit")
		})
	}
}

func TestStatusBar_NarrowWidth(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(5)

	assert.Equal(t, 5, bar.Width())
	assert.NotEmpty(t, bar.View())
}
