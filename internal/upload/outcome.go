package upload

// Outcome discriminates how one upload attempt ended. Every value
// except Success and PeerClosed is a failure local to that attempt;
// the next scheduled cycle starts from a clean state.
type Outcome uint8

const (
	Success Outcome = iota
	SetupFailure
	ConnectFailure
	HandshakeFailure
	RequestTooLarge
	SendFailure
	ReceiveFailure
	// PeerClosed: server closed the connection before sending a
	// response. Informational, not an error.
	PeerClosed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case SetupFailure:
		return "setup-failure"
	case ConnectFailure:
		return "connect-failure"
	case HandshakeFailure:
		return "handshake-failure"
	case RequestTooLarge:
		return "request-too-large"
	case SendFailure:
		return "send-failure"
	case ReceiveFailure:
		return "receive-failure"
	case PeerClosed:
		return "peer-closed"
	}
	return "unknown!"
}

// Result of one upload attempt.
type Result struct {
	Outcome  Outcome
	Code     int    // HTTP status if a response status line was read, else 0
	Response []byte // raw bytes of the single response read, if any
	Err      error
}

// Ok reports whether the attempt delivered the request.
func (r Result) Ok() bool { return r.Outcome == Success || r.Outcome == PeerClosed }
