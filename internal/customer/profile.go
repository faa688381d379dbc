// Package customer resolves which loan customer a call belongs to.
package customer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/emi-voice-agent/internal/language"
)

var (
	// ErrNotFound means no lookup method produced a customer record.
	ErrNotFound = errors.New("customer: not found")
	// ErrIncomplete means a record was found but lacks required fields.
	ErrIncomplete = errors.New("customer: incomplete profile")
)

// IncompleteError lists the required fields a record is missing.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("customer: incomplete profile, missing %s", strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrIncomplete) match.
func (e *IncompleteError) Is(target error) bool { return target == ErrIncomplete }

// Profile is the customer snapshot a call is conducted with. It is resolved
// once per call and never modified afterwards.
type Profile struct {
	ID                string            `json:"id,omitempty"`
	Name              string            `json:"name"`
	PhoneNumber       string            `json:"phone_number"`
	State             string            `json:"state,omitempty"`
	LoanID            string            `json:"loan_id"`
	Amount            string            `json:"amount"`
	DueDate           string            `json:"due_date"`
	PreferredLanguage language.Language `json:"language_code,omitempty"`
}

// Validate checks the fields every prompt needs. Values are never defaulted.
func (p Profile) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", p.Name},
		{"loan_id", p.LoanID},
		{"amount", p.Amount},
		{"due_date", p.DueDate},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}
	return nil
}

// Language is the language the call opens in: the stored preference when
// supported, else the language of the customer's state.
func (p Profile) Language() language.Language {
	if l, ok := language.Parse(string(p.PreferredLanguage)); ok {
		return l
	}
	return language.ForState(p.State)
}

// ProfileFromFields builds a profile from loosely named key/value pairs as
// found in custom fields and cached session blobs.
func ProfileFromFields(fields map[string]string) Profile {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(fields[k]); v != "" {
				return v
			}
		}
		return ""
	}
	return Profile{
		ID:                get("id", "customer_id"),
		Name:              get("name", "customer_name"),
		PhoneNumber:       get("phone_number", "phone", "mobile"),
		State:             get("state"),
		LoanID:            get("loan_id", "loan"),
		Amount:            get("amount", "emi_amount"),
		DueDate:           get("due_date", "duedate"),
		PreferredLanguage: language.Language(get("language_code", "language", "lang")),
	}
}
