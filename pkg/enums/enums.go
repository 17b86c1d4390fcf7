// Package enums holds string enums mirrored by Postgres enum types. Values
// must stay in sync with the migrations that define them.
package enums

import "fmt"

func isOneOf[E ~string](value E, valid []E) bool {
	for _, candidate := range valid {
		if candidate == value {
			return true
		}
	}
	return false
}

func parseEnum[E ~string](value, label string, valid []E) (E, error) {
	if isOneOf(E(value), valid) {
		return E(value), nil
	}
	return "", fmt.Errorf("invalid %s %q", label, value)
}
