package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("post not found")
	ErrNotConnected      = errors.New("platform not connected")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// StorageError wraps any failure of the post store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type PublishError struct {
	PostID   string
	Platform Platform
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s to %s: %v", e.PostID, e.Platform, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

type NotConnectedError struct {
	OwnerID  string
	Platform Platform
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("%s is not connected for user %s", e.Platform, e.OwnerID)
}

func (e *NotConnectedError) Is(target error) bool {
	return target == ErrNotConnected
}
