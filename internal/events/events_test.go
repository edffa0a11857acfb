package events

import (
	"testing"
	"time"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventStatus)
	bus.PublishStatus("manual_run", "Running allocation...", LevelInfo)

	select {
	case received := <-ch:
		status, ok := received.(*StatusEvent)
		if !ok {
			t.Fatal("Expected StatusEvent")
		}
		if status.Workflow != "manual_run" {
			t.Errorf("Expected workflow 'manual_run', got '%s'", status.Workflow)
		}
		if status.Message != "Running allocation..." {
			t.Errorf("Unexpected message %q", status.Message)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch1 := bus.Subscribe(EventBusy)
	ch2 := bus.Subscribe(EventBusy)

	bus.PublishBusy("load_latest", true)

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if !ev.(*BusyEvent).Busy {
				t.Errorf("subscriber %d: expected busy=true", i+1)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d did not receive event", i+1)
		}
	}
}

func TestEventBus_DifferentEventTypes(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	statusCh := bus.Subscribe(EventStatus)
	stateCh := bus.Subscribe(EventStateChanged)

	bus.PublishStateChanged(FieldRun, 3)

	select {
	case <-statusCh:
		t.Error("status subscriber should not receive state change")
	case <-time.After(30 * time.Millisecond):
	}

	select {
	case ev := <-stateCh:
		sc := ev.(*StateChangedEvent)
		if sc.Field != FieldRun || sc.Version != 3 {
			t.Errorf("unexpected event %+v", sc)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("state subscriber did not receive event")
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	all := bus.SubscribeAll()
	bus.PublishStatus("upload", "Uploading CSV...", LevelInfo)
	bus.PublishHealth("Connected", "")

	got := map[EventType]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-all:
			got[ev.Type()] = true
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timeout")
		}
	}
	if !got[EventStatus] || !got[EventHealth] {
		t.Errorf("got %v, want status and health", got)
	}
}

func TestEventBus_NonBlocking(t *testing.T) {
	bus := NewEventBus(1)
	defer bus.Close()

	_ = bus.Subscribe(EventStatus)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			bus.PublishStatus("x", "m", LevelInfo)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	if dropped := bus.Dropped(); dropped != 4 {
		t.Errorf("dropped = %d, want 4", dropped)
	}
	if reset := bus.ResetDropped(); reset != 4 || bus.Dropped() != 0 {
		t.Errorf("reset returned %d", reset)
	}
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus(10)
	ch := bus.Subscribe(EventStatus)
	bus.Close()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed")
	}

	// Publishing and subscribing after close must not panic
	bus.PublishStatus("x", "late", LevelInfo)
	if _, ok := <-bus.SubscribeAll(); ok {
		t.Error("subscription after close should be closed")
	}
	bus.Close()
}

func TestEventBus_NilPublish(t *testing.T) {
	var bus *EventBus
	bus.Publish(&StatusEvent{BaseEvent: BaseEvent{EventType: EventStatus}})
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventHealth)
	bus.Unsubscribe(EventHealth, ch)
	bus.PublishHealth("Offline", "connection refused")

	select {
	case <-ch:
		t.Error("unsubscribed channel received an event")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelInfo, "INFO"},
		{LevelSuccess, "OK"},
		{LevelError, "ERROR"},
		{Level(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}
