// Package redcmd provides a representative set of command bindings: thin
// wrappers over resp.Request/resp.Response that implement command.Command.
// None of them touch transport state; each is executed through
// client.Client or simple.SimpleClient.
package redcmd

import (
	"fmt"

	"github.com/wegj/respclient/resp"
)

// OptionalBytes distinguishes a present bulk payload from a RESP nil, since
// a nil bulk string and an empty bulk string ("") are different wire values.
type OptionalBytes struct {
	Value   []byte
	Present bool
}

func outputErr(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

func expectOK(r resp.Response) (bool, error) {
	s, ok := r.(resp.RSimpleString)
	if !ok || s != "OK" {
		return false, outputErr("expected +OK, got %#v", r)
	}
	return true, nil
}

func expectInteger(r resp.Response) (int64, error) {
	i, ok := r.(resp.RInteger)
	if !ok {
		return 0, outputErr("expected integer reply, got %#v", r)
	}
	return int64(i), nil
}

func expectOptionalBytes(r resp.Response) (OptionalBytes, error) {
	switch v := r.(type) {
	case resp.Nil:
		return OptionalBytes{}, nil
	case resp.Bytes:
		return OptionalBytes{Value: []byte(v), Present: true}, nil
	default:
		return OptionalBytes{}, outputErr("expected bulk string or nil, got %#v", r)
	}
}

func expectBytesArray(r resp.Response) ([][]byte, error) {
	switch v := r.(type) {
	case resp.Nil:
		return nil, nil
	case resp.RArray:
		out := make([][]byte, len(v))
		for i, child := range v {
			b, ok := child.(resp.Bytes)
			if !ok {
				return nil, outputErr("expected bulk string array element, got %#v", child)
			}
			out[i] = []byte(b)
		}
		return out, nil
	default:
		return nil, outputErr("expected array or nil, got %#v", r)
	}
}
