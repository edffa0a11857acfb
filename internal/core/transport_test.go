package core

import (
	"context"
	"io"
	"sync"

	"github.com/pminternship/alloc-admin/internal/api"
	"github.com/pminternship/alloc-admin/internal/models"
)

// fakeTransport records every call and answers from canned responses.
type fakeTransport struct {
	mu    sync.Mutex
	calls []string

	healthErr error

	uploadOutcome *models.UploadOutcome
	uploadErr     error
	uploadedBody  string
	uploadOpts    models.UploadOptions

	triggerID  models.RunID
	triggerErr error

	latestID  models.RunID
	latestErr error

	results    map[models.RunID]*models.RunResults
	resultsErr error

	internships []models.InternshipListing
	listErr     error
	created     []models.InternshipRequest
	createErr   error

	// block, when set, is waited on at the start of every remote call.
	block   chan struct{}
	entered chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{results: map[models.RunID]*models.RunResults{}}
}

func (f *fakeTransport) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	entered, block := f.entered, f.block
	f.mu.Unlock()

	if entered != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
	}
	if block != nil {
		<-block
	}
}

func (f *fakeTransport) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeTransport) count(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeTransport) CheckHealth(ctx context.Context) error {
	f.record(api.OpHealth)
	return f.healthErr
}

func (f *fakeTransport) UploadStudents(ctx context.Context, file models.UploadFile, opts models.UploadOptions) (*models.UploadOutcome, error) {
	f.record(api.OpUpload)
	data, _ := io.ReadAll(file.Reader)
	f.mu.Lock()
	f.uploadedBody = string(data)
	f.uploadOpts = opts
	f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	out := *f.uploadOutcome
	return &out, nil
}

func (f *fakeTransport) TriggerRun(ctx context.Context) (models.RunID, error) {
	f.record(api.OpTriggerRun)
	return f.triggerID, f.triggerErr
}

func (f *fakeTransport) FetchLatestRun(ctx context.Context) (models.RunID, error) {
	f.record(api.OpLatestRun)
	return f.latestID, f.latestErr
}

func (f *fakeTransport) FetchRunResults(ctx context.Context, runID models.RunID) (*models.RunResults, error) {
	f.record(api.OpRunResults)
	if f.resultsErr != nil {
		return nil, f.resultsErr
	}
	if r, ok := f.results[runID]; ok {
		return r, nil
	}
	return nil, &api.RemoteError{Op: api.OpRunResults, StatusCode: 404, Detail: "Run not found"}
}

func (f *fakeTransport) ListInternships(ctx context.Context) ([]models.InternshipListing, error) {
	f.record(api.OpListInternships)
	return f.internships, f.listErr
}

func (f *fakeTransport) CreateInternship(ctx context.Context, req models.InternshipRequest) (*models.CreatedInternship, error) {
	f.record(api.OpCreateInternship)
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	f.created = append(f.created, req)
	f.internships = append(f.internships, models.InternshipListing{ID: len(f.internships) + 1, OrgName: req.OrgName, Title: req.Title})
	id := len(f.internships)
	f.mu.Unlock()
	return &models.CreatedInternship{Status: "ok", ID: id}, nil
}

func (f *fakeTransport) DownloadURL(runID models.RunID) string {
	return "http://svc/download/" + string(runID) + ".csv"
}

func resultRows(n int, title string) *models.RunResults {
	rows := make([]models.ResultRow, n)
	for i := range rows {
		rows[i] = models.ResultRow{StudentName: "student", InternshipTitle: title, FinalScore: 0.5}
	}
	return &models.RunResults{Count: n, Results: rows}
}
