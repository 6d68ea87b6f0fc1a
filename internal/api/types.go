package api

import (
	"encoding/json"
	"fmt"
)

// Credentials is the payload for POST /v2/auth/credentials. It is built
// from CLI flags plus prompted secrets and discarded after the exchange.
type Credentials struct {
	Hostname string `json:"hostname"`
	Username string `json:"username"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
}

// Identity is the response from GET /v2/auth/whoami.
type Identity struct {
	Username  string `json:"username"`
	HasT3Plus bool   `json:"hasT3plus"`
}

// License scopes every data request to one facility.
type License struct {
	LicenseNumber string `json:"licenseNumber"`
	LicenseName   string `json:"licenseName"`
}

func (l License) Label() string {
	return fmt.Sprintf("%s - %s", l.LicenseNumber, l.LicenseName)
}

// Record is a dynamic API record (package, item, history event, ...).
// The remote schema varies per endpoint and state, so records stay
// schemaless and reports flatten them at write time.
type Record map[string]any

// ID returns the record's integer id, or 0 when absent.
func (r Record) ID() int64 {
	switch v := r["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

// Int returns the integer value for key, or 0 when absent or non-numeric.
func (r Record) Int(key string) int64 {
	switch v := r[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

// Sub returns the nested record under key, or nil when absent.
func (r Record) Sub(key string) Record {
	m, _ := r[key].(map[string]any)
	return Record(m)
}

// Str returns the string value for key, or "" when absent or non-string.
func (r Record) Str(key string) string {
	s, _ := r[key].(string)
	return s
}

// Clone returns a shallow copy, used when a report needs to attach
// computed fields without mutating the fetched record.
func (r Record) Clone() Record {
	out := make(Record, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Page is one batch of a paginated collection. Total is the full
// collection size and drives the page-count computation.
type Page struct {
	Data     []Record `json:"data"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
}
