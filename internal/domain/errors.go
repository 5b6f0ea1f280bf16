package domain

import "errors"

// ErrOverBudget is returned when the fixed prompt components (system prompt,
// history, user message, response reserve) already exceed the model's context
// window. The caller decides whether to truncate history or abort; the
// pipeline never produces a negative remaining budget.
var ErrOverBudget = errors.New("prompt components exceed model context window")

// ErrEmptyResultSet is returned when hard filtering and the diversity cap
// leave zero candidates. It is a valid, non-fatal outcome that callers must
// handle explicitly; it is never masked with a sentinel score.
var ErrEmptyResultSet = errors.New("no candidates remain after filtering")
