package redcmd

import "github.com/wegj/respclient/resp"

// HSet implements command.Command[int64] for HSET (single field/value).
type HSet struct {
	Key   string
	Field string
	Value []byte
}

func (c HSet) ToRequest() resp.Request {
	return resp.Array{
		resp.BulkStatic("HSET"),
		resp.BulkString(c.Key),
		resp.BulkString(c.Field),
		resp.BulkString(c.Value),
	}
}

func (c HSet) ToOutput(r resp.Response) (int64, error) {
	return expectInteger(r)
}

// HGet implements command.Command[OptionalBytes] for HGET.
type HGet struct {
	Key   string
	Field string
}

func (c HGet) ToRequest() resp.Request {
	return resp.Array{resp.BulkStatic("HGET"), resp.BulkString(c.Key), resp.BulkString(c.Field)}
}

func (c HGet) ToOutput(r resp.Response) (OptionalBytes, error) {
	return expectOptionalBytes(r)
}
