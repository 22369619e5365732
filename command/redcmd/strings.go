package redcmd

import "github.com/wegj/respclient/resp"

// Get implements command.Command[OptionalBytes] for the GET command.
type Get struct {
	Key string
}

func (c Get) ToRequest() resp.Request {
	return resp.Array{resp.BulkStatic("GET"), resp.BulkString(c.Key)}
}

func (c Get) ToOutput(r resp.Response) (OptionalBytes, error) {
	return expectOptionalBytes(r)
}

// Set implements command.Command[bool] for the SET command (no expiry or
// conditional flags — a representative subset of the full option surface
// bindings).
type Set struct {
	Key   string
	Value []byte
}

func (c Set) ToRequest() resp.Request {
	return resp.Array{resp.BulkStatic("SET"), resp.BulkString(c.Key), resp.BulkString(c.Value)}
}

func (c Set) ToOutput(r resp.Response) (bool, error) {
	return expectOK(r)
}
