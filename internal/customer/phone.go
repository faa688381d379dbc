package customer

import "strings"

// PhoneVariants lists the representations a stored phone number may take:
// as received, digits only, +digits, +91 and 91 prefixed national numbers,
// and the last ten digits. Duplicates are removed, order is kept.
func PhoneVariants(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	digits := digitsOnly(raw)
	candidates := []string{raw, digits}
	if digits != "" {
		candidates = append(candidates, "+"+digits)
	}
	if len(digits) >= 10 {
		last10 := digits[len(digits)-10:]
		candidates = append(candidates, "+91"+last10, "91"+last10, last10)
	}

	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" || c == "+" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// MaskPhone keeps the last four digits for logging.
func MaskPhone(phone string) string {
	digits := digitsOnly(phone)
	if len(digits) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
