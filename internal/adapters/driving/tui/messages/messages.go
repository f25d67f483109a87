// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/spo/internal/core/domain"
)

// RoundRecorded is sent each time the session appends a round.
type RoundRecorded struct {
	Round domain.Round
}

// SessionFinished is sent once when the session returns.
// Result may be partial when Err is set.
type SessionFinished struct {
	Result *domain.Result
	Err    error
}

// Partial reports whether the session stopped early but still has a best round.
func (m SessionFinished) Partial() bool {
	return m.Err != nil && m.Result != nil
}
