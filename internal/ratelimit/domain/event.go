// Package domain defines the rate-limiting entities and key derivation.
package domain

import (
	"time"
)

// Event is one recorded request against a client key and endpoint. Events are
// append-only; the limiter counts them inside a sliding window and a
// background prune removes old rows.
type Event struct {
	ID         int64
	ClientKey  string
	Endpoint   string
	InsertedAt time.Time
}

// EmailKey builds the client key for a request attributable to an account
// email. The email must already be normalized.
func EmailKey(email string) string {
	return "email:" + email
}

// IPKey builds the client key for a request only attributable to a source
// address. Used when no account email is available, so shared NATs pool into
// one bucket.
func IPKey(addr string) string {
	return "ip:" + addr
}
