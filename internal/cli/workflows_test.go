package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newAllocServer fakes the v2 allocation service. latest selects what
// /runs/latest answers; empty means no runs yet.
func newAllocServer(t *testing.T, latest string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Write([]byte(`{"run_id": 12, "status": "completed"}`))
	})
	mux.HandleFunc("/runs/latest", func(w http.ResponseWriter, r *http.Request) {
		if latest == "" {
			http.Error(w, `{"detail":"No runs yet"}`, http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"run_id": ` + latest + `}`))
	})
	mux.HandleFunc("/runs/12/results", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 1, "results": [{"student_name": "Asha Rao", "email": "asha@example.com",
			"internship_title": "Data Intern", "organization": "Acme", "location": "Pune", "pincode": 411001,
			"final_score": 0.8731}]}`))
	})
	mux.HandleFunc("/download/12.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte("student_name,internship_title\nAsha Rao,Data Intern\n"))
	})
	mux.HandleFunc("/internships", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"items": [{"internship_id": 3, "org_name": "Acme", "title": "Data Intern",
				"location": "Pune", "pincode": "411001", "capacity": 2, "min_cgpa": 7, "is_active": 1}]}`))
		case http.MethodPost:
			w.Write([]byte(`{"status": "ok", "internship_id": 4}`))
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// baseArgs points a command at srv with an empty config file.
func baseArgs(t *testing.T, srv *httptest.Server, args ...string) []string {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "config.ini")
	return append(args, "--config", cfg, "--api-base", srv.URL)
}

func TestHealthCommand(t *testing.T) {
	srv := newAllocServer(t, "")
	out, _, err := executeCommand(t, "", baseArgs(t, srv, "health")...)
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	if !strings.Contains(out, "API: Connected") || !strings.Contains(out, srv.URL) {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestRunCommandPrintsResults(t *testing.T) {
	srv := newAllocServer(t, "")
	out, errOut, err := executeCommand(t, "", baseArgs(t, srv, "run")...)
	if err != nil {
		t.Fatalf("run failed: %v (%s)", err, errOut)
	}
	if !strings.Contains(errOut, "Allocation complete. run_id=12") {
		t.Errorf("status line missing: %q", errOut)
	}
	for _, want := range []string{"Results (Run: 12, 1 rows)", "Asha Rao", "411001", "0.8731"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommandJSON(t *testing.T) {
	srv := newAllocServer(t, "")
	out, _, err := executeCommand(t, "", baseArgs(t, srv, "run", "--json")...)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var got struct {
		Count   int `json:"count"`
		Results []struct {
			StudentName string `json:"student_name"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got.Count != 1 || got.Results[0].StudentName != "Asha Rao" {
		t.Errorf("unexpected JSON: %+v", got)
	}
}

func TestLatestWithNoRuns(t *testing.T) {
	srv := newAllocServer(t, "")
	out, errOut, err := executeCommand(t, "", baseArgs(t, srv, "latest")...)
	if err != nil {
		t.Fatalf("latest failed: %v", err)
	}
	if !strings.Contains(errOut, "No runs yet") {
		t.Errorf("expected 'No runs yet', got %q", errOut)
	}
	if out != "" {
		t.Errorf("nothing should be printed to stdout, got %q", out)
	}
}

func TestResultsURLWithoutRequest(t *testing.T) {
	srv := newAllocServer(t, "")
	out, _, err := executeCommand(t, "", baseArgs(t, srv, "results", "url", "5")...)
	if err != nil {
		t.Fatalf("results url failed: %v", err)
	}
	if strings.TrimSpace(out) != srv.URL+"/download/5.csv" {
		t.Errorf("url = %q", strings.TrimSpace(out))
	}
}

func TestResultsDownloadLatest(t *testing.T) {
	srv := newAllocServer(t, "12")
	dir := t.TempDir()
	archive := t.TempDir()

	out, errOut, err := executeCommand(t, "",
		baseArgs(t, srv, "results", "download", "-o", dir, "--archive", archive+string(os.PathSeparator))...)
	if err != nil {
		t.Fatalf("download failed: %v (%s)", err, errOut)
	}

	saved := filepath.Join(dir, "allocation_run_12.csv")
	data, err := os.ReadFile(saved)
	if err != nil {
		t.Fatalf("export not saved: %v", err)
	}
	if !strings.Contains(string(data), "Asha Rao") {
		t.Errorf("unexpected export: %q", data)
	}
	if _, err := os.Stat(filepath.Join(archive, "allocation_run_12.csv")); err != nil {
		t.Errorf("archive copy missing: %v", err)
	}
	if !strings.Contains(out, "allocation_run_12.csv") {
		t.Errorf("saved path not printed:\n%s", out)
	}
}

func TestResultsDownloadBadTarget(t *testing.T) {
	srv := newAllocServer(t, "12")
	_, _, err := executeCommand(t, "",
		baseArgs(t, srv, "results", "download", "-o", t.TempDir(), "--archive", "ftp://nowhere/x")...)
	if err == nil {
		t.Fatal("expected an error for an unsupported archive scheme")
	}
}

func TestInternshipsList(t *testing.T) {
	srv := newAllocServer(t, "")
	out, _, err := executeCommand(t, "", baseArgs(t, srv, "internships", "list")...)
	if err != nil {
		t.Fatalf("internships list failed: %v", err)
	}
	if !strings.Contains(out, "Found 1 internship(s):") || !strings.Contains(out, "Data Intern") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestInternshipsCreate(t *testing.T) {
	srv := newAllocServer(t, "")
	out, _, err := executeCommand(t, "",
		baseArgs(t, srv, "internships", "create", "--org", "Acme", "--title", "QA Intern", "--capacity", "2")...)
	if err != nil {
		t.Fatalf("internships create failed: %v", err)
	}
	if !strings.Contains(out, "Internship created (id=4)") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestInternshipsCreateRequiresOrg(t *testing.T) {
	srv := newAllocServer(t, "")
	out, _, err := executeCommand(t, "", baseArgs(t, srv, "internships", "create", "--title", "QA Intern")...)
	if err == nil {
		t.Fatal("expected an error without --org")
	}
	if !IsReported(err) {
		t.Error("validation message should already be printed")
	}
	if !strings.Contains(out, "Org and Title required") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestUploadRequiresExistingFile(t *testing.T) {
	srv := newAllocServer(t, "")
	missing := filepath.Join(t.TempDir(), "students.csv")
	_, errOut, err := executeCommand(t, "", baseArgs(t, srv, "upload", missing)...)
	if err == nil {
		t.Fatal("expected an error for a missing roster")
	}
	if !strings.Contains(errOut, "roster file not found") {
		t.Errorf("unexpected stderr: %q", errOut)
	}
}
