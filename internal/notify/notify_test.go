package notify

import (
	"errors"
	"strings"
	"testing"
)

type call struct {
	kind, title, message string
}

func newRecording(enabled bool, alertErr error) (*Notifier, *[]call) {
	var calls []call
	n := NewNotifier(enabled, nil)
	n.send = func(title, message string) error {
		calls = append(calls, call{"notify", title, message})
		return nil
	}
	n.alert = func(title, message string) error {
		calls = append(calls, call{"alert", title, message})
		return alertErr
	}
	return n, &calls
}

func TestNotifySuccess(t *testing.T) {
	n, calls := newRecording(true, nil)
	n.Notify("Allocation finished", "Allocation complete. run_id=42", false)

	if len(*calls) != 1 || (*calls)[0].kind != "notify" {
		t.Fatalf("calls = %+v", *calls)
	}
}

func TestNotifyErrorUsesAlert(t *testing.T) {
	n, calls := newRecording(true, nil)
	n.Notify("Upload finished", "Error: bad file", true)

	if len(*calls) != 1 || (*calls)[0].kind != "alert" {
		t.Fatalf("calls = %+v", *calls)
	}
}

func TestNotifyAlertFallsBack(t *testing.T) {
	n, calls := newRecording(true, errors.New("no alert support"))
	n.Notify("Upload finished", "Error: bad file", true)

	if len(*calls) != 2 || (*calls)[1].kind != "notify" {
		t.Fatalf("calls = %+v", *calls)
	}
}

func TestNotifyDisabled(t *testing.T) {
	n, calls := newRecording(false, nil)
	n.Notify("x", "y", false)
	if len(*calls) != 0 {
		t.Fatalf("disabled notifier sent %d notifications", len(*calls))
	}

	n.SetEnabled(true)
	if !n.IsEnabled() {
		t.Fatal("SetEnabled(true) had no effect")
	}
	n.Notify("x", strings.Repeat("m", 500), false)
	if got := len((*calls)[0].message); got != 160 {
		t.Errorf("message length = %d, want 160", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10c", 10, "exactly10c"},
		{"this is a long string", 10, "this is..."},
		{"", 10, ""},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
	}

	for _, tt := range tests {
		if result := truncate(tt.input, tt.maxLen); result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
		}
	}
}
