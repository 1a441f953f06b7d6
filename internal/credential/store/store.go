// Package store holds the collection and delivery registers and the
// verification log. Lookups that miss return sentinel.ErrNotFound.
package store

import "provenance/internal/credential"

// nextStatus applies a status change. Revoked is terminal.
func nextStatus(current, requested credential.Status) credential.Status {
	if current == credential.StatusRevoked {
		return current
	}
	return requested
}
