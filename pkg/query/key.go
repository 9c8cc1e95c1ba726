package query

import (
	"net/url"
)

// Key identifies one cached value: an entity type plus canonical filter
// parameters. Two keys with the same entity and parameters are equal no
// matter the order the parameters were given in.
type Key struct {
	Entity string
	params string
}

// NewKey builds a key. params may be nil.
func NewKey(entity string, params map[string]string) Key {
	if len(params) == 0 {
		return Key{Entity: entity}
	}
	v := make(url.Values, len(params))
	for k, val := range params {
		v.Set(k, val)
	}
	// Encode sorts by key
	return Key{Entity: entity, params: v.Encode()}
}

// Params returns the canonical parameter string.
func (k Key) Params() string { return k.params }

func (k Key) String() string {
	if k.params == "" {
		return k.Entity
	}
	return k.Entity + "?" + k.params
}
