// Package command defines the two-method contract every Redis command
// implements, and the error type produced when a command fails locally
// (server error reply, unparsable typed output, or a protocol-level
// failure on the connection it was issued on).
package command

import (
	"errors"
	"fmt"

	"github.com/wegj/respclient/resp"
)

// Command is the sole extension point between the wire protocol and typed
// Redis operations. ToRequest consumes the builder and produces the frame to
// send; ToOutput interprets a non-error server response. Implementations
// never touch transport state — see command/redcmd for concrete bindings
// (GET, SET, PING, SUBSCRIBE, ...).
type Command[Output any] interface {
	ToRequest() resp.Request
	ToOutput(resp.Response) (Output, error)
}

// Kind identifies which of CommandError's three shapes is populated.
type Kind int

const (
	// KindCommand: the server replied with a RESP error frame.
	KindCommand Kind = iota
	// KindOutput: the frame was a well-formed, non-error reply, but the
	// command's ToOutput could not interpret it (e.g. an integer out of
	// the range of the output type the caller asked for).
	KindOutput
	// KindProtocol: the connection itself failed — a *resp.ParseError or a
	// *resp.PeerGoneError — before or instead of any reply being matched
	// to this command.
	KindProtocol
)

// CommandError is the error type returned by client.Exec (except when its
// context is done, where ctx.Err() is returned), simple.Exec, and
// SubscriptionStream.Recv. Exactly one of its fields is meaningful,
// selected by Kind.
type CommandError struct {
	Kind Kind

	// KindCommand
	Text string

	// KindOutput
	Reason string
	Frame  resp.Response

	// KindProtocol
	Protocol error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case KindCommand:
		return fmt.Sprintf("command: server error: %s", e.Text)
	case KindOutput:
		return fmt.Sprintf("command: could not interpret response (%s): %#v", e.Reason, e.Frame)
	case KindProtocol:
		return fmt.Sprintf("command: %v", e.Protocol)
	default:
		return "command: unknown error"
	}
}

func (e *CommandError) Unwrap() error {
	if e.Kind == KindProtocol {
		return e.Protocol
	}
	return nil
}

// IsPeerGone reports whether err is (or wraps) a CommandError whose root
// cause is the connection being gone.
func IsPeerGone(err error) bool {
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Kind != KindProtocol {
		return false
	}
	var pg *resp.PeerGoneError
	return errors.As(ce.Protocol, &pg)
}

// Resolve applies the Command contract to a decoded response, the single
// call site shared by the shared Client and the Simple Client: reject a
// server error frame as KindCommand, otherwise delegate to cmd.ToOutput.
func Resolve[O any](cmd Command[O], response resp.Response) (O, error) {
	var zero O
	if errFrame, ok := resp.AsError(response); ok {
		return zero, &CommandError{Kind: KindCommand, Text: string(errFrame)}
	}
	out, err := cmd.ToOutput(response)
	if err != nil {
		return zero, &CommandError{Kind: KindOutput, Reason: err.Error(), Frame: response}
	}
	return out, nil
}

// Protocol wraps a connection-level failure (decode error or peer gone) as
// the CommandError shape callers of Exec/Recv observe.
func Protocol(err error) *CommandError {
	return &CommandError{Kind: KindProtocol, Protocol: err}
}
