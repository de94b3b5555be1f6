package identity

import (
	"bytes"
	"encoding/json"
	"strings"
)

// User is the user record produced by an authentication backend. Which
// fields are populated depends on the backend: hosted providers issue
// Subject, API backends issue ID, and the local backend keys records by
// email. The record is owned by the backend that produced it; downstream
// consumers only read the derived identity.
type User struct {
	Subject string     `json:"sub,omitempty"`
	ID      FlexibleID `json:"id,omitempty"`
	Email   string     `json:"email,omitempty"`
	Name    string     `json:"name,omitempty"`
	Picture string     `json:"picture,omitempty"`

	// Password is populated only on the local backend's single stored
	// account record. Demo-grade by construction; see the session package
	// docs before reading anything into this field.
	Password string `json:"password,omitempty"`
}

// FlexibleID is a user id that tolerates both JSON strings and numbers,
// since API backends disagree on which they issue. Numbers are kept in
// their literal decimal form.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

// Derive resolves the stable identity string for a user record, using a
// fixed precedence: provider-issued subject, else local/API id, else
// lower-cased email. The empty string means anonymous (guest).
// Deterministic for a given record.
func Derive(u *User) string {
	if u == nil {
		return ""
	}
	if u.Subject != "" {
		return u.Subject
	}
	if u.ID != "" {
		return string(u.ID)
	}
	if u.Email != "" {
		return strings.ToLower(u.Email)
	}
	return ""
}
