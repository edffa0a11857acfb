package models

import (
	"encoding/json"
	"testing"
)

func TestRunID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want RunID
	}{
		{"integer", `{"run_id": 42}`, "42"},
		{"string", `{"run_id": "abc-1"}`, "abc-1"},
		{"padded string", `{"run_id": " 7 "}`, "7"},
		{"null", `{"run_id": null}`, ""},
		{"missing", `{}`, ""},
		{"empty string", `{"run_id": ""}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref RunRef
			if err := json.Unmarshal([]byte(tt.in), &ref); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if ref.RunID != tt.want {
				t.Errorf("RunID = %q, want %q", ref.RunID, tt.want)
			}
		})
	}
}

func TestRunID_UnmarshalJSONRejectsBool(t *testing.T) {
	var ref RunRef
	if err := json.Unmarshal([]byte(`{"run_id": true}`), &ref); err == nil {
		t.Fatal("expected error for boolean run_id")
	}
}

func TestRunID_IsZero(t *testing.T) {
	if !RunID("").IsZero() || !RunID("   ").IsZero() {
		t.Error("blank run ids should be zero")
	}
	if RunID("1").IsZero() {
		t.Error("run id 1 should not be zero")
	}
	if RunID("").String() != "—" {
		t.Errorf("String() of empty = %q", RunID("").String())
	}
}

func TestUploadOutcome_UploadedFallback(t *testing.T) {
	var a UploadOutcome
	if err := json.Unmarshal([]byte(`{"uploaded_rows":10,"inserted":8,"updated":2,"skipped":0,"run_id":"42"}`), &a); err != nil {
		t.Fatal(err)
	}
	if a.Uploaded != 10 || a.Inserted != 8 || a.Updated != 2 || a.RunID != "42" {
		t.Errorf("unexpected outcome %+v", a)
	}

	var b UploadOutcome
	if err := json.Unmarshal([]byte(`{"uploaded":5,"inserted":5}`), &b); err != nil {
		t.Fatal(err)
	}
	if b.Uploaded != 5 {
		t.Errorf("Uploaded = %d, want 5 from legacy field", b.Uploaded)
	}
	if !b.RunID.IsZero() {
		t.Errorf("RunID = %q, want empty", b.RunID)
	}
}

func TestParseUploadMode(t *testing.T) {
	tests := map[string]UploadMode{
		"":                UploadModeUpsert,
		"upsert":          UploadModeUpsert,
		"SKIP":            UploadModeSkip,
		"skip-duplicates": UploadModeSkip,
		"replace-all":     UploadModeReplaceAll,
		"replace_all":     UploadModeReplaceAll,
	}
	for in, want := range tests {
		got, err := ParseUploadMode(in)
		if err != nil {
			t.Errorf("ParseUploadMode(%q) error = %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseUploadMode(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseUploadMode("merge"); err == nil {
		t.Error("ParseUploadMode(merge) should fail")
	}
}

func TestUploadModeLabelRoundTrip(t *testing.T) {
	for _, m := range UploadModes {
		if got := ParseUploadModeLabel(m.Label()); got != m {
			t.Errorf("label %q mapped to %q, want %q", m.Label(), got, m)
		}
	}
}

func TestResultRow_Decode(t *testing.T) {
	body := `{"count":2,"results":[
		{"student_name":"Asha","email":"a@x.in","internship_title":"Data","organization":"Org","location":"Pune","pincode":411001,"final_score":0.81234},
		{"student_name":"Ravi","email":"r@x.in","internship_title":"Ops","organization":"Org","location":"Delhi","pincode":"110001","final_score":0.5}
	]}`
	var rr RunResults
	if err := json.Unmarshal([]byte(body), &rr); err != nil {
		t.Fatal(err)
	}
	if len(rr.Rows()) != 2 {
		t.Fatalf("got %d rows", len(rr.Rows()))
	}
	if rr.Results[0].Pincode != "411001" {
		t.Errorf("numeric pincode = %q", rr.Results[0].Pincode)
	}
	if got := rr.Results[0].ScoreString(); got != "0.8123" {
		t.Errorf("ScoreString() = %q, want 0.8123", got)
	}
	if got := rr.Results[1].ScoreString(); got != "0.5000" {
		t.Errorf("ScoreString() = %q, want 0.5000", got)
	}
}

func TestRunResults_NilRows(t *testing.T) {
	var rr RunResults
	if err := json.Unmarshal([]byte(`{"count":0,"results":null}`), &rr); err != nil {
		t.Fatal(err)
	}
	if rows := rr.Rows(); rows == nil || len(rows) != 0 {
		t.Errorf("Rows() = %#v, want empty non-nil slice", rows)
	}
}

func TestInternshipListing_Decode(t *testing.T) {
	body := `{"items":[{"internship_id":3,"org_name":"Acme","title":"Intern","location":null,"pincode":"560001","capacity":2,"is_active":1,"min_cgpa":6.5}]}`
	var list InternshipList
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Items) != 1 {
		t.Fatalf("got %d items", len(list.Items))
	}
	it := list.Items[0]
	if it.ID != 3 || !bool(it.IsActive) || it.MinCGPA != 6.5 || it.Location != "" {
		t.Errorf("unexpected listing %+v", it)
	}
}

func TestInternshipRequest_Normalized(t *testing.T) {
	req := InternshipRequest{OrgName: "  Acme ", Title: "\tIntern\n", Capacity: 1}
	n := req.Normalized()
	if n.OrgName != "Acme" || n.Title != "Intern" {
		t.Errorf("Normalized() = %+v", n)
	}
}
