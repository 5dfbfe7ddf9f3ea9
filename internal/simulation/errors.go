package simulation

import "errors"

var (
	// ErrPrecondition marks inputs that were assembled wrong upstream. A batch that
	// hits one is aborted without a partial tally.
	ErrPrecondition = errors.New("precondition violation")

	// ErrDataIntegrity marks a distribution that did not expand to its own count total
	ErrDataIntegrity = errors.New("data integrity violation")
)
