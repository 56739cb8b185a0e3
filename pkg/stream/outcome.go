package stream

// Status is the terminal state of an exchange.
type Status int

const (
	StatusSuccess Status = iota
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// Outcome is delivered exactly once per exchange, after its last token.
type Outcome struct {
	Status Status

	// Err is nil on success. It has kind Cancelled for cancelled exchanges.
	Err *Error
}

// Succeeded returns the success outcome.
func Succeeded() Outcome {
	return Outcome{Status: StatusSuccess}
}

// CancelledOutcome returns the cancellation outcome.
func CancelledOutcome() Outcome {
	return Outcome{Status: StatusCancelled, Err: ErrCancelled}
}

// Failed returns a failure outcome carrying err.
func Failed(err *Error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

// Message returns the single line shown to the user, or "" on success.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusSuccess:
		return ""
	case StatusCancelled:
		return "Request cancelled."
	}
	if o.Err == nil {
		return "Request failed."
	}
	return o.Err.Error()
}
