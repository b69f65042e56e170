package service

import (
	"fmt"
)

// FetchError reports a failed call to the CMS. The previous state stays valid
// and the caller may try again.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ShapeError reports a CMS record that lacks a required field or carries one
// that cannot be decoded. No partial view model is built.
type ShapeError struct {
	UID    string
	Field  string
	Reason string
	Err    error
}

func (e *ShapeError) Error() string {
	uid := e.UID
	if uid == "" {
		uid = "<no uid>"
	}
	if e.Err != nil {
		return fmt.Sprintf("post %s: field %s %s: %v", uid, e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("post %s: field %s %s", uid, e.Field, e.Reason)
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}
