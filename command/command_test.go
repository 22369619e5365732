package command

import (
	"errors"
	"testing"

	"github.com/wegj/respclient/resp"
)

type pingCmd struct{}

func (pingCmd) ToRequest() resp.Request { return resp.Array{resp.BulkStatic("PING")} }

func (pingCmd) ToOutput(r resp.Response) (string, error) {
	s, ok := r.(resp.RSimpleString)
	if !ok {
		return "", errors.New("expected simple string")
	}
	return string(s), nil
}

func TestResolve_ServerErrorIsKindCommand(t *testing.T) {
	_, err := Resolve[string](pingCmd{}, resp.RError("ERR boom"))
	var ce *CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CommandError, got %v", err)
	}
	if ce.Kind != KindCommand {
		t.Fatalf("Kind = %v, want KindCommand", ce.Kind)
	}
	if ce.Text != "ERR boom" {
		t.Fatalf("Text = %q, want %q", ce.Text, "ERR boom")
	}
}

func TestResolve_UnparsableOutputIsKindOutput(t *testing.T) {
	_, err := Resolve[string](pingCmd{}, resp.RInteger(1))
	var ce *CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CommandError, got %v", err)
	}
	if ce.Kind != KindOutput {
		t.Fatalf("Kind = %v, want KindOutput", ce.Kind)
	}
}

func TestResolve_SuccessPassesThrough(t *testing.T) {
	out, err := Resolve[string](pingCmd{}, resp.RSimpleString("PONG"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "PONG" {
		t.Fatalf("out = %q, want PONG", out)
	}
}

func TestProtocol_WrapsAsKindProtocol(t *testing.T) {
	cause := resp.NewPeerGone(nil)
	err := Protocol(cause)
	if err.Kind != KindProtocol {
		t.Fatalf("Kind = %v, want KindProtocol", err.Kind)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("Protocol error should unwrap to its cause")
	}
}

func TestIsPeerGone(t *testing.T) {
	if IsPeerGone(nil) {
		t.Fatalf("nil error should not be peer-gone")
	}
	if IsPeerGone(errors.New("plain")) {
		t.Fatalf("unrelated error should not be peer-gone")
	}

	peerGone := Protocol(resp.NewPeerGone(errors.New("EOF")))
	if !IsPeerGone(peerGone) {
		t.Fatalf("expected IsPeerGone to recognize a protocol error wrapping PeerGoneError")
	}

	serverErr := &CommandError{Kind: KindCommand, Text: "ERR boom"}
	if IsPeerGone(serverErr) {
		t.Fatalf("a server error reply must not be classified as peer-gone")
	}

	protocolButNotPeerGone := Protocol(&resp.ParseError{Reason: "bad header"})
	if IsPeerGone(protocolButNotPeerGone) {
		t.Fatalf("a protocol error that isn't PeerGoneError must not be classified as peer-gone")
	}
}
