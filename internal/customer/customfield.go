package customer

import "strings"

// ParseCustomField splits a pipe-delimited "key=value|key=value" string.
// Keys are lowercased and trimmed; segments without "=" are ignored.
func ParseCustomField(raw string) map[string]string {
	fields := make(map[string]string)
	for _, segment := range strings.Split(raw, "|") {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}
	return fields
}
