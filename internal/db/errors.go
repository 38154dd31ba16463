package db

import "errors"

var (
	// ErrKeyNotFound reports a missing key or an empty JSON path match.
	ErrKeyNotFound = errors.New("db: key not found")
	// ErrIndexNotFound reports an unknown index name.
	ErrIndexNotFound = errors.New("db: index not found")
	// ErrIndexExists reports an index name that is already taken.
	ErrIndexExists = errors.New("db: index already exists")
)

// Command names recorded in Error.Op.
const (
	OpCreateIndex   = "FT.CREATE"
	OpDropIndex     = "FT.DROPINDEX"
	OpIndexInfo     = "FT.INFO"
	OpSearch        = "FT.SEARCH"
	OpTagVals       = "FT.TAGVALS"
	OpJSONSet       = "JSON.SET"
	OpJSONGet       = "JSON.GET"
	OpJSONNumIncrBy = "JSON.NUMINCRBY"
	OpJSONArrAppend = "JSON.ARRAPPEND"
	OpExec          = "EXEC"
	OpGet           = "GET"
	OpSet           = "SET"
	OpDel           = "DEL"
)

// Error is a failed database command. Sentinel conditions are returned bare, never as *Error.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// IsError reports whether err is, or wraps, a failed database command.
func IsError(err error) bool {
	var dbErr *Error
	return errors.As(err, &dbErr)
}
