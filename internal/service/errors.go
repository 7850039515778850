package service

import "errors"

var (
	// ErrEmptyMessage means a broadcast had no text after the command.
	ErrEmptyMessage = errors.New("empty broadcast message")
	// ErrDirectoryUnavailable means the recipient list could not be read.
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
	// ErrPersistence wraps any other store failure.
	ErrPersistence = errors.New("persistence failure")
	// ErrQuoteFetch means the quote API could not be reached or answered garbage.
	ErrQuoteFetch = errors.New("failed to fetch quote")
)
