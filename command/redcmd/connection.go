package redcmd

import "github.com/wegj/respclient/resp"

// Ping implements command.Command[[]byte] for PING. A bare PING returns the
// simple string "PONG"; PING with a Message argument echoes it back as a
// bulk reply. Both shapes are normalized to a byte slice here.
type Ping struct {
	Message []byte
}

func (c Ping) ToRequest() resp.Request {
	if len(c.Message) == 0 {
		return resp.Array{resp.BulkStatic("PING")}
	}
	return resp.Array{resp.BulkStatic("PING"), resp.BulkString(c.Message)}
}

func (c Ping) ToOutput(r resp.Response) ([]byte, error) {
	switch v := r.(type) {
	case resp.RSimpleString:
		return []byte(v), nil
	case resp.Bytes:
		return []byte(v), nil
	default:
		return nil, outputErr("expected simple string or bulk string, got %#v", r)
	}
}

// Auth implements command.Command[bool] for AUTH. Used by the connector's
// handshake loop; callers outside that loop rarely need it directly.
type Auth struct {
	Password string
}

func (c Auth) ToRequest() resp.Request {
	return resp.Array{resp.BulkStatic("AUTH"), resp.BulkString(c.Password)}
}

func (c Auth) ToOutput(r resp.Response) (bool, error) {
	return expectOK(r)
}

// Select implements command.Command[bool] for SELECT.
type Select struct {
	Index int
}

func (c Select) ToRequest() resp.Request {
	return resp.Array{resp.BulkStatic("SELECT"), resp.BulkInteger(int64(c.Index))}
}

func (c Select) ToOutput(r resp.Response) (bool, error) {
	return expectOK(r)
}

// Reset implements command.Command[bool] for RESET. Issue this after
// SubscriptionStream.IntoClient to sanitize server-side pub/sub state
// before resuming request/response traffic.
type Reset struct{}

func (c Reset) ToRequest() resp.Request {
	return resp.Array{resp.BulkStatic("RESET")}
}

func (c Reset) ToOutput(r resp.Response) (bool, error) {
	s, ok := r.(resp.RSimpleString)
	return ok && s == "RESET", nil
}
