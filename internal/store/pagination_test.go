package store

import (
	"encoding/base64"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginationParams_Validate(t *testing.T) {
	tests := []struct {
		name          string
		input         PaginationParams
		expectedLimit int
	}{
		{name: "valid parameters", input: PaginationParams{Limit: 50}, expectedLimit: 50},
		{name: "zero limit defaults to 100", input: PaginationParams{Limit: 0}, expectedLimit: 100},
		{name: "negative limit defaults to 100", input: PaginationParams{Limit: -10}, expectedLimit: 100},
		{name: "limit over 1000 caps at 1000", input: PaginationParams{Limit: 5000}, expectedLimit: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := tt.input
			params.Validate()
			assert.Equal(t, tt.expectedLimit, params.Limit)
		})
	}
}

func TestCursor_RoundTrip(t *testing.T) {
	assert.Empty(t, EncodeCursor(""))

	decoded, err := DecodeCursor(EncodeCursor("rec:42"))
	require.NoError(t, err)
	assert.Equal(t, "rec:42", decoded)

	empty, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDecodeCursor_RejectsForeignCursors(t *testing.T) {
	_, err := DecodeCursor("!!!")
	assert.ErrorIs(t, err, ErrInvalidCursor)

	_, err = DecodeCursor(base64.RawURLEncoding.EncodeToString([]byte("rec:42")))
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestPaginate(t *testing.T) {
	keys := []string{"a", "b", "c"}
	seq := func(yield func(*string, error) bool) {
		for i := range keys {
			if !yield(&keys[i], nil) {
				return
			}
		}
	}
	self := func(s *string) string { return *s }

	first, err := paginate(seq, PaginationParams{Limit: 2}, self)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, first.Items)
	assert.True(t, first.HasMore)

	rest, err := paginate(seq, PaginationParams{Limit: 2, Cursor: first.NextCursor}, self)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, rest.Items)
	assert.False(t, rest.HasMore)
	assert.True(t, slices.Equal(keys, append(first.Items, rest.Items...)))
}
