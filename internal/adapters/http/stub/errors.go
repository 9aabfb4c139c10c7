package stub

import "errors"

// Sentinel kinds for stub server errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrImport     = errors.New("import albums")
)
