package bt

// Status is the result of ticking a node.
type Status uint8

const (
	// StatusInvalid marks a node that has not run since construction, reset or abort.
	// A live tick never reports it.
	StatusInvalid Status = iota
	// StatusRunning means the node is suspended and must be ticked again next frame.
	StatusRunning
	StatusSuccess
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "Running"
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	default:
		return "Invalid"
	}
}

// Terminal reports whether s ends an invocation chain.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}
