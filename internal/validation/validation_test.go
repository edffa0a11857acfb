package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pminternship/alloc-admin/internal/models"
)

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"simple", "allocation_42.csv", false},
		{"double dots inside", "data..v2.csv", false},
		{"empty", "", true},
		{"unix separator", "a/b.csv", true},
		{"windows separator", `a\b.csv`, true},
		{"parent", "..", true},
		{"null byte", "a\x00.csv", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilename(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilename(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRosterPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "students.csv")
	if err := os.WriteFile(file, []byte("name\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := ValidateRosterPath(file); err != nil {
		t.Errorf("valid file: %v", err)
	}
	if err := ValidateRosterPath("  "); !errors.Is(err, ErrNoRoster) {
		t.Errorf("blank path error = %v, want ErrNoRoster", err)
	}
	if err := ValidateRosterPath(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("missing file should fail")
	}
	if err := ValidateRosterPath(dir); err == nil {
		t.Error("directory should fail")
	}
}

func TestValidateInternship(t *testing.T) {
	valid := func() models.InternshipRequest {
		r := models.NewInternshipRequest()
		r.OrgName, r.Title = "Acme", "Backend Intern"
		return r
	}

	tests := []struct {
		name    string
		mutate  func(*models.InternshipRequest)
		wantErr string
	}{
		{"minimal", func(r *models.InternshipRequest) {}, ""},
		{"full", func(r *models.InternshipRequest) {
			r.Location, r.Pincode, r.Capacity, r.MinCGPA = "Pune", "411001", 3, 7.5
		}, ""},
		{"missing org", func(r *models.InternshipRequest) { r.OrgName = "" }, "org_name"},
		{"missing title", func(r *models.InternshipRequest) { r.Title = "" }, "title"},
		{"short pincode", func(r *models.InternshipRequest) { r.Pincode = "41" }, "pincode"},
		{"long pincode", func(r *models.InternshipRequest) { r.Pincode = "4110011" }, "pincode"},
		{"zero capacity", func(r *models.InternshipRequest) { r.Capacity = 0 }, "capacity"},
		{"cgpa too high", func(r *models.InternshipRequest) { r.MinCGPA = 11 }, "min_cgpa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			err := ValidateInternship(req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %s", tt.wantErr)
			}
			var se *SchemaError
			if !errors.As(err, &se) {
				t.Fatalf("error = %T, want *SchemaError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestParseInternships(t *testing.T) {
	list := `[
	  {"org_name": " Acme ", "title": "ML", "pincode": "560001", "capacity": 2},
	  {"org_name": "Beta", "title": "Ops"}
	]`
	reqs, err := ParseInternships([]byte(list))
	if err != nil {
		t.Fatalf("ParseInternships() error = %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requests", len(reqs))
	}
	if reqs[0].OrgName != "Acme" || reqs[0].Capacity != 2 {
		t.Errorf("first = %+v", reqs[0])
	}
	if reqs[1].Capacity != 1 {
		t.Errorf("default capacity = %d, want 1", reqs[1].Capacity)
	}

	single, err := ParseInternships([]byte(`{"org_name":"Acme","title":"ML"}`))
	if err != nil || len(single) != 1 {
		t.Fatalf("single object: %v, %d", err, len(single))
	}

	if _, err := ParseInternships([]byte(`[{"org_name":"Acme"}]`)); err == nil || !strings.Contains(err.Error(), "internship 1") {
		t.Errorf("missing title error = %v", err)
	}
	if _, err := ParseInternships([]byte("  ")); err == nil {
		t.Error("empty input should fail")
	}
}
