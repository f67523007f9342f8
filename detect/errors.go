package detect

import "errors"

// ErrInvalidGeometry is returned for zero area, inverted or non finite boxes
var ErrInvalidGeometry = errors.New("invalid geometry")
