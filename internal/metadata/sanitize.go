package metadata

import "strings"

var keyReplacer = strings.NewReplacer(".", "_", ",", "_", "/", "-")

// SanitizeKey rewrites a label or annotation key into a field-name safe form:
// "." and "," become "_" and "/" becomes "-".
func SanitizeKey(key string) string {
	return keyReplacer.Replace(key)
}

// SanitizeKeys returns a copy of raw with every key passed through
// SanitizeKey. Values are kept as is. A nil map yields an empty map.
//
// Two keys that sanitize to the same name collapse into one entry; which
// value survives is unspecified.
func SanitizeKeys(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[SanitizeKey(k)] = v
	}
	return out
}
