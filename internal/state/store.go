// Package state holds the client-side view of the allocation service: the
// active run and its results, the last upload, the busy flag, the status line,
// API health and the internship list. Every write publishes an event so any
// front end can re-render from a Snapshot.
package state

import (
	"sync"

	"github.com/pminternship/alloc-admin/internal/events"
	"github.com/pminternship/alloc-admin/internal/models"
)

// Status is the operator-facing status line.
type Status struct {
	Workflow string
	Message  string
	Level    events.Level
}

// IsError reports whether the status line shows a failure.
func (s Status) IsError() bool {
	return s.Level == events.LevelError
}

// Snapshot is a point-in-time copy of the store. Slices are owned by the caller.
type Snapshot struct {
	ActiveRunID  models.RunID
	Results      []models.ResultRow
	Upload       *models.UploadOutcome
	Busy         bool
	BusyWorkflow string
	Status       Status
	Health       models.HealthState
	HealthDetail string
	Internships  []models.InternshipListing
	Version      uint64
}

// HasRun reports whether a run is selected.
func (s Snapshot) HasRun() bool {
	return !s.ActiveRunID.IsZero()
}

// Store is the single source of truth for front ends. Thread-safe.
type Store struct {
	eventBus *events.EventBus

	runID        models.RunID
	results      []models.ResultRow
	upload       *models.UploadOutcome
	busy         bool
	busyWorkflow string
	status       Status
	health       models.HealthState
	healthDetail string
	internships  []models.InternshipListing
	version      uint64

	mu sync.RWMutex
}

// NewStore creates an empty store. eventBus may be nil.
func NewStore(eventBus *events.EventBus) *Store {
	return &Store{
		eventBus:    eventBus,
		results:     []models.ResultRow{},
		internships: []models.InternshipListing{},
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		ActiveRunID:  s.runID,
		Results:      make([]models.ResultRow, len(s.results)),
		Busy:         s.busy,
		BusyWorkflow: s.busyWorkflow,
		Status:       s.status,
		Health:       s.health,
		HealthDetail: s.healthDetail,
		Internships:  make([]models.InternshipListing, len(s.internships)),
		Version:      s.version,
	}
	copy(snap.Results, s.results)
	copy(snap.Internships, s.internships)
	if s.upload != nil {
		u := *s.upload
		snap.Upload = &u
	}
	return snap
}

// SetRunAndResults replaces the active run and its rows in one step.
// It is the only way to change either, so they always describe the same run.
func (s *Store) SetRunAndResults(runID models.RunID, rows []models.ResultRow) {
	own := make([]models.ResultRow, len(rows))
	copy(own, rows)

	s.mu.Lock()
	s.runID = runID
	s.results = own
	v := s.bump()
	s.mu.Unlock()

	s.publish(events.FieldRun, v)
}

// SetUploadOutcome records the summary of the last upload.
func (s *Store) SetUploadOutcome(outcome models.UploadOutcome) {
	s.mu.Lock()
	s.upload = &outcome
	v := s.bump()
	s.mu.Unlock()

	s.publish(events.FieldUpload, v)
}

// SetBusy toggles the busy flag. workflow is ignored when clearing.
func (s *Store) SetBusy(busy bool, workflow string) {
	s.mu.Lock()
	s.busy = busy
	if busy {
		s.busyWorkflow = workflow
	} else {
		s.busyWorkflow = ""
	}
	v := s.bump()
	s.mu.Unlock()

	s.publish(events.FieldBusy, v)
	if s.eventBus != nil {
		s.eventBus.PublishBusy(workflow, busy)
	}
}

// SetStatus replaces the status line.
func (s *Store) SetStatus(status Status) {
	s.mu.Lock()
	s.status = status
	v := s.bump()
	s.mu.Unlock()

	s.publish(events.FieldStatus, v)
	if s.eventBus != nil {
		s.eventBus.PublishStatus(status.Workflow, status.Message, status.Level)
	}
}

// SetHealth records the result of a health probe.
func (s *Store) SetHealth(health models.HealthState, detail string) {
	s.mu.Lock()
	s.health = health
	s.healthDetail = detail
	v := s.bump()
	s.mu.Unlock()

	s.publish(events.FieldHealth, v)
	if s.eventBus != nil {
		s.eventBus.PublishHealth(health.String(), detail)
	}
}

// SetInternships replaces the internship list.
func (s *Store) SetInternships(items []models.InternshipListing) {
	own := make([]models.InternshipListing, len(items))
	copy(own, items)

	s.mu.Lock()
	s.internships = own
	v := s.bump()
	s.mu.Unlock()

	s.publish(events.FieldInternships, v)
}

// bump must be called with mu held.
func (s *Store) bump() uint64 {
	s.version++
	return s.version
}

func (s *Store) publish(field events.Field, version uint64) {
	if s.eventBus != nil {
		s.eventBus.PublishStateChanged(field, version)
	}
}
