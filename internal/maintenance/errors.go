package maintenance

import "errors"

// ErrInvalidIdentifier indicates a configured table, view or extension name
// is not a valid [schema.]name.
var ErrInvalidIdentifier = errors.New("invalid identifier")
