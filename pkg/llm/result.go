package llm

// ResultKind classifies what a decoded stream record carried.
type ResultKind int

const (
	// Ignored records carry nothing to show: metadata, keep-alives,
	// completion markers.
	Ignored ResultKind = iota

	// Token records carry one fragment of assistant text.
	Token

	// TerminalError records report a malformed or error-bearing payload.
	// The exchange must stop forwarding tokens once one is seen.
	TerminalError
)

func (k ResultKind) String() string {
	switch k {
	case Token:
		return "token"
	case TerminalError:
		return "terminal_error"
	default:
		return "ignored"
	}
}

// Result is the outcome of decoding a single stream record.
type Result struct {
	Kind ResultKind

	// Text is set for Token results. It may be empty.
	Text string

	// Message and Code are set for TerminalError results. Code is optional.
	Message string
	Code    string
}

// TokenResult returns a Token result carrying text.
func TokenResult(text string) Result {
	return Result{Kind: Token, Text: text}
}

// IgnoredResult returns an Ignored result.
func IgnoredResult() Result {
	return Result{Kind: Ignored}
}

// ErrorResult returns a TerminalError result.
func ErrorResult(message, code string) Result {
	return Result{Kind: TerminalError, Message: message, Code: code}
}
