package fetch

import "fmt"

// FetchError reports a location that could not be retrieved.
type FetchError struct {
	Location   string
	StatusCode int // HTTP status, 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
