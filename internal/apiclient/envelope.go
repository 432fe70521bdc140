package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the normalized response of every storefront API call.
// The backend is not consistent about where it reports success and tokens,
// so callers must go through the accessor methods instead of the raw fields.
type Envelope struct {
	Status     *Flag           `json:"status,omitempty"`
	Success    *Flag           `json:"success,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Message    string          `json:"message,omitempty"`
	Token      string          `json:"token,omitempty"`
	Pagination *Pagination     `json:"pagination,omitempty"`
}

// Flag is a success flag. Besides JSON booleans it accepts the numeric and
// string spellings some endpoints use ("true", "success", "ok", 1).
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch t := v.(type) {
	case bool:
		*f = Flag(t)
	case float64:
		*f = t == 1
	case string:
		switch strings.ToLower(t) {
		case "true", "success", "ok", "1":
			*f = true
		default:
			*f = false
		}
	default:
		*f = false
	}

	return nil
}

// Bool returns a pointer to f, convenient for building envelopes.
func Bool(v bool) *Flag {
	f := Flag(v)
	return &f
}

type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// Succeeded reports whether either success flag is present and true.
// Flags are consulted in the order status, success.
func (e Envelope) Succeeded() bool {
	for _, flag := range []*Flag{e.Status, e.Success} {
		if flag != nil && bool(*flag) {
			return true
		}
	}

	return false
}

// ContinuationToken returns the token issued by the server, looking at
// data.token first and the root token second.
func (e Envelope) ContinuationToken() (string, bool) {
	var data struct {
		Token string `json:"token"`
	}
	if isObject(e.Data) && json.Unmarshal(e.Data, &data) == nil && data.Token != "" {
		return data.Token, true
	}

	if e.Token != "" {
		return e.Token, true
	}

	return "", false
}

// Page returns the pagination block, defaulting to a single page.
func (e Envelope) Page() Pagination {
	p := Pagination{CurrentPage: 1, TotalPages: 1}
	if e.Pagination == nil {
		return p
	}

	if e.Pagination.CurrentPage > 0 {
		p.CurrentPage = e.Pagination.CurrentPage
	}
	if e.Pagination.TotalPages > 0 {
		p.TotalPages = e.Pagination.TotalPages
	}
	p.ItemsPerPage = e.Pagination.ItemsPerPage

	return p
}

func (e Envelope) MessageOr(fallback string) string {
	if e.Message != "" {
		return e.Message
	}

	return fallback
}

// DecodeData decodes the data member of env into v.
// An absent or null data member leaves v untouched.
func DecodeData(env Envelope, v any) error {
	if len(bytes.TrimSpace(env.Data)) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil
	}

	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decoding envelope data: %w", err)
	}

	return nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
