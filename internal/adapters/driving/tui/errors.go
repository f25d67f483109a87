package tui

import "errors"

// ErrMissingOptimizer is returned when the optimizer is not provided.
var ErrMissingOptimizer = errors.New("tui: optimizer is required")
