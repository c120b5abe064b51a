// Package nostr implements the subset of the Nostr protocol the catalog needs:
// signed events, filters, and a WebSocket relay client with query and publish.
package nostr

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"unicode/utf8"
)

// Event is a signed, immutable relay record.
type Event struct {
	ID        string `json:"id"`
	PubKey    string `json:"pubkey"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tags      Tags   `json:"tags"`
	Content   string `json:"content"`
	Sig       string `json:"sig"`
}

// Tag is a single string-array tag. Element 0 is the tag name.
type Tag []string

// Key returns the tag name.
func (t Tag) Key() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Value returns the first tag value, or "" when absent.
func (t Tag) Value() string {
	if len(t) < 2 {
		return ""
	}
	return t[1]
}

// Tags is the tag list of an event.
type Tags []Tag

// Find returns the first tag with the given name, or nil.
func (tags Tags) Find(key string) Tag {
	for _, t := range tags {
		if t.Key() == key {
			return t
		}
	}
	return nil
}

// Last returns the last tag with the given name, or nil.
func (tags Tags) Last(key string) Tag {
	for i := len(tags) - 1; i >= 0; i-- {
		if tags[i].Key() == key {
			return tags[i]
		}
	}
	return nil
}

// Value returns the value of the first tag with the given name.
func (tags Tags) Value(key string) string {
	return tags.Find(key).Value()
}

// Values returns the values of every tag with the given name.
func (tags Tags) Values(key string) []string {
	var out []string
	for _, t := range tags {
		if t.Key() == key && len(t) > 1 {
			out = append(out, t[1])
		}
	}
	return out
}

// Serialize returns the canonical NIP-01 commitment
// [0,<pubkey>,<created_at>,<kind>,<tags>,<content>] whose sha256 is the event id.
func (e *Event) Serialize() []byte {
	buf := make([]byte, 0, 128+len(e.Content))
	buf = append(buf, `[0,"`...)
	buf = append(buf, e.PubKey...)
	buf = append(buf, `",`...)
	buf = strconv.AppendInt(buf, e.CreatedAt, 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(e.Kind), 10)
	buf = append(buf, ",["...)
	for i, tag := range e.Tags {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '[')
		for j, s := range tag {
			if j > 0 {
				buf = append(buf, ',')
			}
			buf = appendQuoted(buf, s)
		}
		buf = append(buf, ']')
	}
	buf = append(buf, "],"...)
	buf = appendQuoted(buf, e.Content)
	buf = append(buf, ']')
	return buf
}

// ComputeID returns the hex id the event should carry.
func (e *Event) ComputeID() string {
	sum := sha256.Sum256(e.Serialize())
	return hex.EncodeToString(sum[:])
}

// CheckID reports whether the event id matches its content.
func (e *Event) CheckID() bool {
	return e.ID == e.ComputeID()
}

// appendQuoted writes s as a JSON string using the NIP-01 escaping rules:
// only quote, backslash and control characters are escaped, everything else
// is emitted as raw UTF-8.
func appendQuoted(buf []byte, s string) []byte {
	const hexDigits = "0123456789abcdef"
	buf = append(buf, '"')
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				buf = append(buf, `�`...)
			} else {
				buf = append(buf, s[i:i+size]...)
			}
			i += size
			continue
		}
		switch c {
		case '"':
			buf = append(buf, `\"`...)
		case '\\':
			buf = append(buf, `\\`...)
		case '\n':
			buf = append(buf, `\n`...)
		case '\r':
			buf = append(buf, `\r`...)
		case '\t':
			buf = append(buf, `\t`...)
		case '\b':
			buf = append(buf, `\b`...)
		case '\f':
			buf = append(buf, `\f`...)
		default:
			if c < 0x20 {
				buf = append(buf, `\u00`...)
				buf = append(buf, hexDigits[c>>4], hexDigits[c&0xf])
			} else {
				buf = append(buf, c)
			}
		}
		i++
	}
	return append(buf, '"')
}
