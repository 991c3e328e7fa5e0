package ledger

import "errors"

// ErrValidation is returned when an entry would break the ledger invariants (amount > 0, known kind).
var ErrValidation = errors.New("invalid entry")

// ErrNotFound is returned when an entry id does not exist in the conversation.
var ErrNotFound = errors.New("entry not found")
