package nostr

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
	"slices"
	"strings"
)

// Filter selects events on a relay. Zero values mean "unconstrained".
type Filter struct {
	IDs     []string
	Kinds   []int
	Authors []string
	// Tags maps a single-letter (or named) tag to accepted values; serialized as "#<name>".
	Tags  map[string][]string
	Since int64
	Until int64
	Limit int
}

// MarshalJSON encodes the filter in relay wire form.
func (f Filter) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, 6+len(f.Tags))
	if len(f.IDs) > 0 {
		m["ids"] = f.IDs
	}
	if len(f.Kinds) > 0 {
		m["kinds"] = f.Kinds
	}
	if len(f.Authors) > 0 {
		m["authors"] = f.Authors
	}
	for name, values := range f.Tags {
		m["#"+name] = values
	}
	if f.Since > 0 {
		m["since"] = f.Since
	}
	if f.Until > 0 {
		m["until"] = f.Until
	}
	if f.Limit > 0 {
		m["limit"] = f.Limit
	}
	return json.Marshal(m, json.Deterministic(true))
}

// UnmarshalJSON decodes the relay wire form.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw map[string]jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = Filter{}
	for key, value := range raw {
		var err error
		switch {
		case key == "ids":
			err = json.Unmarshal(value, &f.IDs)
		case key == "kinds":
			err = json.Unmarshal(value, &f.Kinds)
		case key == "authors":
			err = json.Unmarshal(value, &f.Authors)
		case key == "since":
			err = json.Unmarshal(value, &f.Since)
		case key == "until":
			err = json.Unmarshal(value, &f.Until)
		case key == "limit":
			err = json.Unmarshal(value, &f.Limit)
		case strings.HasPrefix(key, "#"):
			var values []string
			err = json.Unmarshal(value, &values)
			if f.Tags == nil {
				f.Tags = make(map[string][]string)
			}
			f.Tags[key[1:]] = values
		}
		if err != nil {
			return fmt.Errorf("filter field %q: %w", key, err)
		}
	}
	return nil
}

// Matches reports whether ev satisfies every constraint of the filter except Limit.
func (f Filter) Matches(ev *Event) bool {
	if len(f.IDs) > 0 && !slices.Contains(f.IDs, ev.ID) {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, ev.Kind) {
		return false
	}
	if len(f.Authors) > 0 && !slices.Contains(f.Authors, ev.PubKey) {
		return false
	}
	if f.Since > 0 && ev.CreatedAt < f.Since {
		return false
	}
	if f.Until > 0 && ev.CreatedAt > f.Until {
		return false
	}
	for name, values := range f.Tags {
		if !slices.ContainsFunc(ev.Tags.Values(name), func(v string) bool {
			return slices.Contains(values, v)
		}) {
			return false
		}
	}
	return true
}
