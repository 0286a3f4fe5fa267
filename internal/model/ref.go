package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// FlexID accepts identifiers encoded either as JSON strings or numbers.
type FlexID string

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// Ref carries the backend-assigned identity of an entity.
type Ref struct {
	ID  FlexID `json:"id,omitempty"`
	URI string `json:"uri,omitempty"`
}

// Key returns the identifier to use in resource paths, preferring the URI.
func (r Ref) Key() string {
	if r.URI != "" {
		return r.URI
	}
	return string(r.ID)
}

// Validate is applied to decoded backend records.
func (r *Ref) Validate() error {
	if r.Key() == "" {
		return errors.New("record without id or uri")
	}
	return nil
}
