package redcmd

import "github.com/wegj/respclient/resp"

// Subscription is the minimal contract for pub/sub (un)subscribe requests:
// unlike command.Command, no ToOutput is defined, because their replies are
// demultiplexed as PubSubItem values by the subscription stream rather than
// matched one-for-one the way request/response commands are (see package
// simple).
type Subscription interface {
	ToRequest() resp.Request
}

// Subscribe requests SUBSCRIBE for one or more channels.
type Subscribe struct{ Channels []string }

func (c Subscribe) ToRequest() resp.Request { return namesToRequest("SUBSCRIBE", c.Channels) }

// Unsubscribe requests UNSUBSCRIBE. An empty Channels list unsubscribes from
// all channels.
type Unsubscribe struct{ Channels []string }

func (c Unsubscribe) ToRequest() resp.Request { return namesToRequest("UNSUBSCRIBE", c.Channels) }

// PSubscribe requests PSUBSCRIBE for one or more glob patterns.
type PSubscribe struct{ Patterns []string }

func (c PSubscribe) ToRequest() resp.Request { return namesToRequest("PSUBSCRIBE", c.Patterns) }

// PUnsubscribe requests PUNSUBSCRIBE.
type PUnsubscribe struct{ Patterns []string }

func (c PUnsubscribe) ToRequest() resp.Request { return namesToRequest("PUNSUBSCRIBE", c.Patterns) }

// SSubscribe requests SSUBSCRIBE (sharded pub/sub channels).
type SSubscribe struct{ Channels []string }

func (c SSubscribe) ToRequest() resp.Request { return namesToRequest("SSUBSCRIBE", c.Channels) }

// SUnsubscribe requests SUNSUBSCRIBE.
type SUnsubscribe struct{ Channels []string }

func (c SUnsubscribe) ToRequest() resp.Request { return namesToRequest("SUNSUBSCRIBE", c.Channels) }

func namesToRequest(cmd string, names []string) resp.Request {
	req := make(resp.Array, 0, len(names)+1)
	req = append(req, resp.BulkStatic(cmd))
	for _, n := range names {
		req = append(req, resp.BulkString(n))
	}
	return req
}

// Publish implements command.Command[int64] for PUBLISH: an ordinary
// request/response command, unlike its Subscribe siblings, since a publish
// reply is a plain integer rather than a push frame.
type Publish struct {
	Channel string
	Payload []byte
}

func (c Publish) ToRequest() resp.Request {
	return resp.Array{resp.BulkStatic("PUBLISH"), resp.BulkString(c.Channel), resp.BulkString(c.Payload)}
}

func (c Publish) ToOutput(r resp.Response) (int64, error) {
	return expectInteger(r)
}
