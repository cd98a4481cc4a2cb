package core

import "errors"

// Error kinds shared by every package of the simulator. Callers match them
// with errors.Is; the concrete errors wrap them with context.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrIndex            = errors.New("index error")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNormalization    = errors.New("normalization error")
	ErrInvalidGate      = errors.New("invalid gate")
	ErrParse            = errors.New("parse error")
)

var ErrorJobIDConflict = errors.New("jobID is already used")
