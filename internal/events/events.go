// Package events carries workflow status, busy transitions and store changes
// from the engine to whichever front end is attached.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pminternship/alloc-admin/internal/constants"
)

type EventType string

const (
	EventStatus       EventType = "status"        // Status line changed
	EventBusy         EventType = "busy"          // Single-flight guard taken or released
	EventStateChanged EventType = "state_changed" // Store field updated
	EventHealth       EventType = "health"        // API health probe finished
)

// Level is the severity of a status message
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

var levelNames = [...]string{LevelInfo: "INFO", LevelSuccess: "OK", LevelError: "ERROR"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Field names the part of the store that changed.
type Field string

const (
	FieldRun         Field = "run"    // Active run id and its results
	FieldUpload      Field = "upload" // Last upload outcome
	FieldBusy        Field = "busy"
	FieldStatus      Field = "status"
	FieldHealth      Field = "health"
	FieldInternships Field = "internships"
)

// Event is anything published on the bus.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// StatusEvent is a new status line for the operator.
type StatusEvent struct {
	BaseEvent
	Workflow string
	Message  string
	Level    Level
}

// BusyEvent reports the single-flight guard toggling.
type BusyEvent struct {
	BaseEvent
	Workflow string
	Busy     bool
}

// StateChangedEvent reports a store write. Version increases with every write.
type StateChangedEvent struct {
	BaseEvent
	Field   Field
	Version uint64
}

// HealthEvent reports the outcome of an API health probe.
type HealthEvent struct {
	BaseEvent
	State  string // "Connected", "Offline"
	Detail string
}

// anyEvent keys subscribers that receive every event type.
const anyEvent EventType = "*"

// EventBus fans events out to buffered subscriber channels. Publish never
// blocks; a full subscriber misses the event and the miss is counted.
// Front ends re-read the store snapshot on the next event, so a dropped
// update is never permanent.
type EventBus struct {
	mu         sync.RWMutex
	subs       map[EventType][]chan Event
	bufferSize int
	closed     bool
	dropped    atomic.Int64
}

// NewEventBus clamps bufferSize into the configured bounds.
func NewEventBus(bufferSize int) *EventBus {
	switch {
	case bufferSize <= 0:
		bufferSize = constants.EventBusDefaultBuffer
	case bufferSize > constants.EventBusMaxBuffer:
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{subs: make(map[EventType][]chan Event), bufferSize: bufferSize}
}

// Subscribe returns a channel for one event type. After Close it returns a
// closed channel.
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}
	ch := make(chan Event, eb.bufferSize)
	eb.subs[eventType] = append(eb.subs[eventType], ch)
	return ch
}

// SubscribeAll returns a channel that receives every event.
func (eb *EventBus) SubscribeAll() <-chan Event {
	return eb.Subscribe(anyEvent)
}

func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return
	}

	for _, key := range [2]EventType{event.Type(), anyEvent} {
		for _, ch := range eb.subs[key] {
			select {
			case ch <- event:
			default:
				eb.dropped.Add(1)
			}
		}
	}
}

// Close closes every subscriber channel. Unsubscribe never closes channels,
// so readers that outlive the bus must also watch their own context.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true
	for _, chans := range eb.subs {
		for _, ch := range chans {
			close(ch)
		}
	}
}

func (eb *EventBus) PublishStatus(workflow, message string, level Level) {
	eb.Publish(&StatusEvent{BaseEvent: newBase(EventStatus), Workflow: workflow, Message: message, Level: level})
}

func (eb *EventBus) PublishBusy(workflow string, busy bool) {
	eb.Publish(&BusyEvent{BaseEvent: newBase(EventBusy), Workflow: workflow, Busy: busy})
}

func (eb *EventBus) PublishStateChanged(field Field, version uint64) {
	eb.Publish(&StateChangedEvent{BaseEvent: newBase(EventStateChanged), Field: field, Version: version})
}

func (eb *EventBus) PublishHealth(state string, detail string) {
	eb.Publish(&HealthEvent{BaseEvent: newBase(EventHealth), State: state, Detail: detail})
}

func newBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// Unsubscribe detaches ch from one event type.
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if !eb.closed {
		eb.detach(eventType, ch)
	}
}

// UnsubscribeAll detaches ch wherever it is registered.
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return
	}
	for eventType := range eb.subs {
		eb.detach(eventType, ch)
	}
}

func (eb *EventBus) detach(eventType EventType, ch <-chan Event) {
	chans := eb.subs[eventType]
	for i, c := range chans {
		if c == ch {
			eb.subs[eventType] = append(chans[:i], chans[i+1:]...)
			return
		}
	}
}

// Dropped returns how many deliveries were skipped on full buffers.
func (eb *EventBus) Dropped() int64 {
	return eb.dropped.Load()
}

// ResetDropped zeroes the counter and returns its previous value.
func (eb *EventBus) ResetDropped() int64 {
	return eb.dropped.Swap(0)
}
