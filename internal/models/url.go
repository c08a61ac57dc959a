package models

import "time"

// URL represents a shortened URL and its associated metadata.
//
// Records are append-only: once created, only ClickCount and LastAccessedAt
// change, and both are mutated exclusively through the store's atomic
// RecordAccess operation.
type URL struct {
	// ID is the store-assigned surrogate identifier of the record.
	ID int64
	// ShortCode is the fixed-length base62 code associated with the original URL.
	ShortCode string
	// OriginalURL is the original, full-length URL that the short code points to.
	OriginalURL string
	// ClickCount tracks the number of successful redirects through the short code.
	ClickCount int64
	// CreatedAt is the timestamp indicating when the record was created.
	CreatedAt time.Time
	// LastAccessedAt is the timestamp of the most recent redirect, nil until
	// the code is accessed for the first time.
	LastAccessedAt *time.Time
}
