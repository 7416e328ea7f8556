// Package session persists client state between runs, playing the role
// browser localStorage plays for the web client. Each store owns one
// namespaced key and persists a JSON-encoded subset of its state.
package session

import "context"

// Keys under which the stores persist their state. They match the web
// client's storage keys so the two can be reasoned about interchangeably.
const (
	KeyAuth       = "auth-store"
	KeyOrganizers = "organizers-store"
	KeyFollowers  = "followers-store"
	KeyEvents     = "events-store"
)

// Store is a namespaced JSON key-value store.
type Store interface {
	// Get loads the value under key into v. Returns false when the key
	// does not exist.
	Get(ctx context.Context, key string, v interface{}) (bool, error)
	// Set stores v under key, replacing any previous value.
	Set(ctx context.Context, key string, v interface{}) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
