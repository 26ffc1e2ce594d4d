package database

import (
	"fmt"
	"strconv"
)

// Uint64 returns the numeric field or zero when it is absent.
func (as Asset) Uint64(key string) (uint64, error) {
	v, exists := as[key]
	if !exists {
		return 0, nil
	}

	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("asset field %q: %w", key, err)
	}

	return n, nil
}

// Int64 returns the signed numeric field or zero when it is absent.
func (as Asset) Int64(key string) (int64, error) {
	v, exists := as[key]
	if !exists {
		return 0, nil
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("asset field %q: %w", key, err)
	}

	return n, nil
}

// String returns the string field or the empty string when it is absent.
func (as Asset) String(key string) string {
	return as[key]
}

// WithUint64 returns a copy of the asset with the field set. A zero value
// removes the field.
func (as Asset) WithUint64(key string, v uint64) Asset {
	if v == 0 {
		return as.Without(key)
	}
	return as.with(key, strconv.FormatUint(v, 10))
}

// WithInt64 returns a copy of the asset with the field set. A zero value
// removes the field.
func (as Asset) WithInt64(key string, v int64) Asset {
	if v == 0 {
		return as.Without(key)
	}
	return as.with(key, strconv.FormatInt(v, 10))
}

// WithString returns a copy of the asset with the field set. An empty value
// removes the field.
func (as Asset) WithString(key string, v string) Asset {
	if v == "" {
		return as.Without(key)
	}
	return as.with(key, v)
}

// Without returns a copy of the asset with the specified fields removed.
func (as Asset) Without(keys ...string) Asset {
	cpy := as.Copy()
	for _, key := range keys {
		delete(cpy, key)
	}
	if len(cpy) == 0 {
		return nil
	}
	return cpy
}

func (as Asset) with(key string, v string) Asset {
	cpy := as.Copy()
	if cpy == nil {
		cpy = make(Asset)
	}
	cpy[key] = v
	return cpy
}
