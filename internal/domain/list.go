package domain

import "strconv"

// ListHeader describes a curated list (the master songs list or a genre sub-list).
type ListHeader struct {
	ID           string   `json:"id"`
	AuthorKey    string   `json:"author_key"`
	Identifier   string   `json:"identifier"` // "d" tag
	ATag         string   `json:"a_tag"`      // kind:pubkey:d
	NameSingular string   `json:"name_singular"`
	NamePlural   string   `json:"name_plural"`
	Description  string   `json:"description,omitempty"`
	Parent       string   `json:"parent,omitempty"`
	Required     []string `json:"required,omitempty"`
	Recommended  []string `json:"recommended,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	CreatedAt    int64    `json:"created_at"`
}

// ListCount is the number of entries on a list. Capped is true when the
// relay-side sample limit was reached, so the real count may be higher.
type ListCount struct {
	ListTag string `json:"list_tag"`
	Count   int    `json:"count"`
	Capped  bool   `json:"capped"`
}

// Label renders the count the way the catalog shows it ("1000+").
func (c ListCount) Label() string {
	s := strconv.Itoa(c.Count)
	if c.Capped {
		return s + "+"
	}
	return s
}
