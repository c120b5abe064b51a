// Package id generates identifiers for relay subscriptions, job runs and list records.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// nanoLength keeps REQ ids well under the 64 character limit relays enforce.
const nanoLength = 16

// Generate creates a prefixed unique ID, e.g. "sub-V1StGXR8_Z5jdHi6".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New(nanoLength)
	if err != nil {
		return "", fmt.Errorf("generate %s id: %w", prefix, err)
	}
	return prefix + "-" + id, nil
}

// ListIdentifier returns a fresh "d" tag value for an addressable list header.
func ListIdentifier() string {
	return uuid.NewString()
}
