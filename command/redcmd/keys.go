package redcmd

import (
	"math"

	"github.com/wegj/respclient/resp"
)

// Del implements command.Command[int64] for DEL.
type Del struct {
	Keys []string
}

func (c Del) ToRequest() resp.Request {
	req := make(resp.Array, 0, len(c.Keys)+1)
	req = append(req, resp.BulkStatic("DEL"))
	for _, k := range c.Keys {
		req = append(req, resp.BulkString(k))
	}
	return req
}

func (c Del) ToOutput(r resp.Response) (int64, error) {
	return expectInteger(r)
}

// Expire implements command.Command[bool] for EXPIRE.
type Expire struct {
	Key     string
	Seconds int64
}

func (c Expire) ToRequest() resp.Request {
	return resp.Array{resp.BulkStatic("EXPIRE"), resp.BulkString(c.Key), resp.BulkInteger(c.Seconds)}
}

func (c Expire) ToOutput(r resp.Response) (bool, error) {
	n, err := expectInteger(r)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// TTL implements command.Command[int32] for TTL. It demonstrates the
// narrow-output-type overflow rule: a 64-bit reply outside the range of
// int32 is an Output error rather than a silent truncation.
type TTL struct {
	Key string
}

func (c TTL) ToRequest() resp.Request {
	return resp.Array{resp.BulkStatic("TTL"), resp.BulkString(c.Key)}
}

func (c TTL) ToOutput(r resp.Response) (int32, error) {
	n, err := expectInteger(r)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, outputErr("TTL value %d overflows int32", n)
	}
	return int32(n), nil
}
