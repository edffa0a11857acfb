// Package models defines the data exchanged with the allocation service and
// shared between the engine, the state store and the front ends.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RunID identifies one allocation run. The service assigns it; the client
// treats it as opaque. The zero value means "no run selected".
type RunID string

// IsZero reports whether no run is selected.
func (r RunID) IsZero() bool {
	return strings.TrimSpace(string(r)) == ""
}

// String returns the identifier, or "—" when unset, for display.
func (r RunID) String() string {
	if r.IsZero() {
		return "—"
	}
	return string(r)
}

// UnmarshalJSON accepts a JSON string, an integer or null.
// The service currently answers with integers; older builds used strings.
func (r *RunID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid run_id: %w", err)
		}
		*r = RunID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid run_id %s: %w", string(data), err)
	}
	*r = RunID(n.String())
	return nil
}

// RunRef is the body of POST /run and GET /runs/latest.
type RunRef struct {
	RunID  RunID  `json:"run_id"`
	Status string `json:"status,omitempty"`
}

// ResultRow is one student-to-internship assignment of a run.
type ResultRow struct {
	StudentName     string     `json:"student_name"`
	Email           string     `json:"email"`
	InternshipTitle string     `json:"internship_title"`
	Organization    string     `json:"organization"`
	Location        string     `json:"location"`
	Pincode         FlexString `json:"pincode"`
	FinalScore      float64    `json:"final_score"`
}

// ScoreString formats the final score the way every front end shows it.
func (r ResultRow) ScoreString() string {
	return strconv.FormatFloat(r.FinalScore, 'f', 4, 64)
}

// RunResults is the body of GET /runs/{id}/results.
type RunResults struct {
	Count   int         `json:"count"`
	Results []ResultRow `json:"results"`
}

// Rows returns the result rows, never nil.
func (r *RunResults) Rows() []ResultRow {
	if r == nil || r.Results == nil {
		return []ResultRow{}
	}
	return r.Results
}

// FlexString decodes a JSON string, number or null into a string.
// Pincodes arrive as either depending on how the roster was ingested.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", string(data))
		}
		*f = FlexString(n.String())
	}
	return nil
}

// FlexBool decodes a JSON bool, 0/1 number or null.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "", "null", "false", "0":
		*f = false
	case "true", "1":
		*f = true
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected bool or number, got %s", string(data))
		}
		v, err := n.Float64()
		if err != nil {
			return err
		}
		*f = v != 0
	}
	return nil
}
