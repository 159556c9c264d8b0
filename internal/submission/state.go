package submission

// Phase is the stage of the current submission.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is the submission state machine's current value.
// URL is set in every phase except idle; Reason only when failed.
type State struct {
	Phase  Phase
	URL    string
	Reason error
}

func idle() State { return State{Phase: PhaseIdle} }

func pending(url string) State { return State{Phase: PhasePending, URL: url} }

func succeeded(url string) State { return State{Phase: PhaseSucceeded, URL: url} }

func failed(url string, reason error) State {
	return State{Phase: PhaseFailed, URL: url, Reason: reason}
}

// Finished reports whether the state holds an outcome awaiting dismissal.
func (s State) Finished() bool {
	return s.Phase == PhaseSucceeded || s.Phase == PhaseFailed
}
