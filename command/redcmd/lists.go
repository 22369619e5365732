package redcmd

import "github.com/wegj/respclient/resp"

// LPush implements command.Command[int64] for LPUSH.
type LPush struct {
	Key    string
	Values [][]byte
}

func (c LPush) ToRequest() resp.Request {
	req := make(resp.Array, 0, len(c.Values)+2)
	req = append(req, resp.BulkStatic("LPUSH"), resp.BulkString(c.Key))
	for _, v := range c.Values {
		req = append(req, resp.BulkString(v))
	}
	return req
}

func (c LPush) ToOutput(r resp.Response) (int64, error) {
	return expectInteger(r)
}

// LRange implements command.Command[[][]byte] for LRANGE.
type LRange struct {
	Key   string
	Start int64
	Stop  int64
}

func (c LRange) ToRequest() resp.Request {
	return resp.Array{
		resp.BulkStatic("LRANGE"),
		resp.BulkString(c.Key),
		resp.BulkInteger(c.Start),
		resp.BulkInteger(c.Stop),
	}
}

func (c LRange) ToOutput(r resp.Response) ([][]byte, error) {
	return expectBytesArray(r)
}
