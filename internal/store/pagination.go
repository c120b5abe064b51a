package store

import (
	"encoding/base64"
	"errors"
	"fmt"
	"iter"
	"strings"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000

	// cursorPrefix marks cursors minted by this package so foreign strings are rejected.
	cursorPrefix = "after:"
)

// ErrInvalidCursor is returned for cursors this package did not mint.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationParams contains pagination request parameters.
type PaginationParams struct {
	Limit  int    // Items per page, defaults to 100 and is capped at 1000
	Cursor string // Opaque cursor for the next page, empty for the first page
}

// PaginatedResult contains paginated data and metadata.
type PaginatedResult[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"` // Empty if no more pages
	HasMore    bool   `json:"has_more"`
}

// Validate checks and corrects pagination parameters.
func (p *PaginationParams) Validate() {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	p.Limit = min(p.Limit, maxPageSize)
}

// EncodeCursor creates an opaque cursor pointing after key.
func EncodeCursor(key string) string {
	if key == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + key))
}

// DecodeCursor returns the key a cursor points after.
func DecodeCursor(cursor string) (string, error) {
	if cursor == "" {
		return "", nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	key, ok := strings.CutPrefix(string(decoded), cursorPrefix)
	if !ok || key == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return key, nil
}

// paginate reads one page from a key-ordered sequence, skipping keys up to
// and including the cursor.
func paginate[T any](seq iter.Seq2[*T, error], params PaginationParams, key func(*T) string) (*PaginatedResult[T], error) {
	params.Validate()

	after, err := DecodeCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	result := &PaginatedResult[T]{Items: make([]T, 0, params.Limit)}
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		if after != "" && key(item) <= after {
			continue
		}
		if len(result.Items) == params.Limit {
			result.HasMore = true
			break
		}
		result.Items = append(result.Items, *item)
	}
	if result.HasMore {
		result.NextCursor = EncodeCursor(key(&result.Items[len(result.Items)-1]))
	}
	return result, nil
}
