package repository

import "errors"

// Repository-level sentinel errors. Lookups that find nothing return nil, nil;
// these are for writes that matched no row.
var (
	ErrNotFound   = errors.New("record not found")
	ErrNotPending = errors.New("deletion request is not pending")
)
