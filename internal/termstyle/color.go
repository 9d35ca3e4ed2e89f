// SPDX-License-Identifier: MIT
package termstyle

import (
	"github.com/liggitt/tabwriter"

	"github.com/skaphos/devenv/internal/model"
)

const (
	Reset = "\x1b[0m"
	Green = "\x1b[32m"
	Brown = "\x1b[33m"
	Red   = "\x1b[31m"
	Blue  = "\x1b[34m"

	// Semantic aliases used by table output.
	Healthy = Green
	Warn    = Brown
	Error   = Red
	Info    = Blue
)

// Colorize wraps a value in ANSI escapes when color output is enabled.
func Colorize(enabled bool, value, color string) string {
	if !enabled || value == "" || color == "" {
		return value
	}
	// Hide ANSI sequences from tabwriter width calculations so columns align.
	esc := string([]byte{tabwriter.Escape})
	return esc + color + esc + value + esc + Reset + esc
}

// ForOutcome returns the color for a sync outcome.
func ForOutcome(outcome model.Outcome) string {
	switch outcome {
	case model.OutcomeCloned, model.OutcomeUpdated:
		return Healthy
	case model.OutcomePlanned:
		return Info
	case model.OutcomeSkipped:
		return ""
	case model.OutcomeAborted:
		return Warn
	default:
		return Error
	}
}
