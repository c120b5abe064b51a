package domain

import "time"

// HiddenItem is a catalog record this server hides from every view.
// It is the local fallback when the relay refuses a deletion.
type HiddenItem struct {
	ID       string    `json:"id"` // Record id of the hidden list item
	ListTag  string    `json:"list_tag,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	HiddenBy string    `json:"hidden_by,omitempty"` // Pubkey of the curator who removed it
	HiddenAt time.Time `json:"hidden_at"`
}
