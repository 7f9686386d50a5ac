package domain

import "errors"

// ErrNotFound is returned when a (type, id) pair is absent from the target collection.
var ErrNotFound = errors.New("record not found")

// ErrIDConflict is returned when an explicitly supplied id already exists in the target collection.
var ErrIDConflict = errors.New("record id conflict")

// ErrTreeTooDeep is returned when a tree walk exceeds the configured depth ceiling.
var ErrTreeTooDeep = errors.New("record tree too deep")

// ErrDocumentNotFound is returned when a document id cannot be found in the store.
var ErrDocumentNotFound = errors.New("document not found")
