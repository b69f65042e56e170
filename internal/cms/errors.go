package cms

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrNoMasterRef   = errors.New("cms api has no master ref")
	ErrForeignCursor = errors.New("cursor does not point at the cms api")
	ErrCursorLoop    = errors.New("cms returned an already visited cursor")
)

// StatusError is returned when the CMS answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cms request %s: HTTP %d", e.URL, e.StatusCode)
}
