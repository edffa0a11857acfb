package models

// WorkflowPhase is the lifecycle of one workflow invocation.
type WorkflowPhase int

const (
	PhaseIdle WorkflowPhase = iota
	PhaseBusy
	PhaseSettled
)

func (p WorkflowPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseBusy:
		return "busy"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// WorkflowStatus is what a settled workflow reports to the operator.
type WorkflowStatus struct {
	Phase   WorkflowPhase
	Message string
	Err     error
}

// Failed reports whether the workflow settled with an error.
func (s WorkflowStatus) Failed() bool {
	return s.Err != nil
}

// Settled builds a success status.
func Settled(msg string) WorkflowStatus {
	return WorkflowStatus{Phase: PhaseSettled, Message: msg}
}

// SettledErr builds an error status.
func SettledErr(msg string, err error) WorkflowStatus {
	return WorkflowStatus{Phase: PhaseSettled, Message: msg, Err: err}
}

// HealthState is the tri-state API indicator in the dashboard header.
type HealthState int

const (
	HealthUnknown HealthState = iota
	HealthUp
	HealthDown
)

func (h HealthState) String() string {
	switch h {
	case HealthUp:
		return "Connected"
	case HealthDown:
		return "Offline"
	default:
		return "Checking..."
	}
}
