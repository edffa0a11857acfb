package api

import "testing"

func TestRoutesFor(t *testing.T) {
	tests := []struct {
		version  string
		trigger  string
		latest   string
		results  string
		download string
		wantErr  bool
	}{
		{"", "/run", "/runs/latest", "/runs/42/results", "/download/42.csv", false},
		{"v2", "/run", "/runs/latest", "/runs/42/results", "/download/42.csv", false},
		{"V1", "/run/", "/run/latest", "/run/42/results", "/download/42.csv", false},
		{"v3", "", "", "", "", true},
	}

	for _, tt := range tests {
		r, err := RoutesFor(tt.version)
		if (err != nil) != tt.wantErr {
			t.Fatalf("RoutesFor(%q) error = %v", tt.version, err)
		}
		if tt.wantErr {
			continue
		}
		if r.TriggerRun != tt.trigger || r.LatestRun != tt.latest {
			t.Errorf("RoutesFor(%q) = %s, %s", tt.version, r.TriggerRun, r.LatestRun)
		}
		if got := r.Results("42"); got != tt.results {
			t.Errorf("Results = %q, want %q", got, tt.results)
		}
		if got := r.Download("42"); got != tt.download {
			t.Errorf("Download = %q, want %q", got, tt.download)
		}
	}
}

func TestRoutesEscapeRunID(t *testing.T) {
	if got := RoutesV2.Results("a/b"); got != "/runs/a%2Fb/results" {
		t.Errorf("Results = %q", got)
	}
}
