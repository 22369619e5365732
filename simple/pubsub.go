package simple

import (
	"fmt"

	"github.com/wegj/respclient/command"
	"github.com/wegj/respclient/command/redcmd"
	"github.com/wegj/respclient/resp"
)

// ItemKind identifies the shape of a decoded pub/sub push frame.
type ItemKind int

const (
	// Subscribed confirms a (p/s)subscribe request took effect.
	Subscribed ItemKind = iota
	// Unsubscribed confirms a (p/s)unsubscribe request took effect.
	Unsubscribed
	// Message carries a published payload for a channel or pattern match.
	Message
)

func (k ItemKind) String() string {
	switch k {
	case Subscribed:
		return "subscribed"
	case Unsubscribed:
		return "unsubscribed"
	case Message:
		return "message"
	default:
		return "unknown"
	}
}

// PubSubItem is a demultiplexed push frame delivered by a SubscriptionStream.
// Pattern is set only when the frame arrived as a 4-element pmessage array;
// Count is set only for Subscribed/Unsubscribed confirmations.
type PubSubItem struct {
	Kind    ItemKind
	Pattern []byte
	Channel []byte
	Payload []byte
	Count   int64
}

var subscribeWords = map[string]bool{
	"subscribe": true, "ssubscribe": true, "psubscribe": true,
}
var unsubscribeWords = map[string]bool{
	"unsubscribe": true, "sunsubscribe": true, "punsubscribe": true,
}
var messageWords = map[string]bool{
	"message": true, "smessage": true,
}

// demux applies the pub/sub demultiplexing rules to a decoded array: length
// 3 with a recognized type word at index 0 uses index 2 as payload (for
// message words) or count (for subscribe/unsubscribe confirmations), with no
// pattern; length 4 (pmessage) uses index 1 as pattern, index 2 as channel,
// index 3 as payload. Any other shape, or an unrecognized type word, is a
// protocol error.
func demux(frame resp.Response) (PubSubItem, error) {
	arr, ok := frame.(resp.RArray)
	if !ok {
		return PubSubItem{}, &resp.ParseError{Reason: fmt.Sprintf("pub/sub frame was not an array: %#v", frame)}
	}

	switch len(arr) {
	case 3:
		word, ok := bulkText(arr[0])
		if !ok {
			return PubSubItem{}, &resp.ParseError{Reason: "pub/sub frame: type word not a bulk/simple string"}
		}
		channel, ok := bulkBytes(arr[1])
		if !ok {
			return PubSubItem{}, &resp.ParseError{Reason: "pub/sub frame: channel/pattern not a bulk string"}
		}
		switch {
		case subscribeWords[word]:
			count, ok := asInteger(arr[2])
			if !ok {
				return PubSubItem{}, &resp.ParseError{Reason: "pub/sub subscribe confirmation: count not an integer"}
			}
			return PubSubItem{Kind: Subscribed, Channel: channel, Count: count}, nil
		case unsubscribeWords[word]:
			count, ok := asInteger(arr[2])
			if !ok {
				return PubSubItem{}, &resp.ParseError{Reason: "pub/sub unsubscribe confirmation: count not an integer"}
			}
			return PubSubItem{Kind: Unsubscribed, Channel: channel, Count: count}, nil
		case messageWords[word]:
			payload, ok := bulkBytes(arr[2])
			if !ok {
				return PubSubItem{}, &resp.ParseError{Reason: "pub/sub message: payload not a bulk string"}
			}
			return PubSubItem{Kind: Message, Channel: channel, Payload: payload}, nil
		default:
			return PubSubItem{}, &resp.ParseError{Reason: fmt.Sprintf("pub/sub frame: unrecognized type word %q", word)}
		}
	case 4:
		word, ok := bulkText(arr[0])
		if !ok || word != "pmessage" {
			return PubSubItem{}, &resp.ParseError{Reason: fmt.Sprintf("pub/sub 4-element frame: unrecognized type word %q", word)}
		}
		pattern, ok := bulkBytes(arr[1])
		if !ok {
			return PubSubItem{}, &resp.ParseError{Reason: "pmessage: pattern not a bulk string"}
		}
		channel, ok := bulkBytes(arr[2])
		if !ok {
			return PubSubItem{}, &resp.ParseError{Reason: "pmessage: channel not a bulk string"}
		}
		payload, ok := bulkBytes(arr[3])
		if !ok {
			return PubSubItem{}, &resp.ParseError{Reason: "pmessage: payload not a bulk string"}
		}
		return PubSubItem{Kind: Message, Pattern: pattern, Channel: channel, Payload: payload}, nil
	default:
		return PubSubItem{}, &resp.ParseError{Reason: fmt.Sprintf("pub/sub frame: unexpected array length %d", len(arr))}
	}
}

func bulkBytes(r resp.Response) ([]byte, bool) {
	b, ok := r.(resp.Bytes)
	return []byte(b), ok
}

func bulkText(r resp.Response) (string, bool) {
	switch v := r.(type) {
	case resp.Bytes:
		return string(v), true
	case resp.RSimpleString:
		return string(v), true
	default:
		return "", false
	}
}

func asInteger(r resp.Response) (int64, bool) {
	i, ok := r.(resp.RInteger)
	return int64(i), ok
}

// SubscriptionStream is returned by Subscribe; it consumes the SimpleClient
// it was built from. Reusing that handle for request/response traffic before
// calling IntoClient and issuing RESET may surface buffered push frames as
// unexpected responses.
type SubscriptionStream struct {
	client *SimpleClient
}

// Subscribe sends cmd (a SUBSCRIBE/PSUBSCRIBE/SSUBSCRIBE request) and
// returns a stream bound to c's stream. c should not be used directly again;
// retrieve it back via SubscriptionStream.IntoClient once done.
func Subscribe(c *SimpleClient, cmd redcmd.Subscription) (*SubscriptionStream, error) {
	if err := c.Send(cmd.ToRequest()); err != nil {
		return nil, command.Protocol(err)
	}
	return &SubscriptionStream{client: c}, nil
}

// Send forwards an additional subscribe/unsubscribe request on the same
// stream; its confirmation arrives as a later Recv item, interleaved with
// any Message items already in flight.
func (s *SubscriptionStream) Send(cmd redcmd.Subscription) error {
	return s.client.Send(cmd.ToRequest())
}

// Recv blocks for the next push frame and demultiplexes it.
func (s *SubscriptionStream) Recv() (PubSubItem, error) {
	frame, err := s.client.readFrame()
	if err != nil {
		return PubSubItem{}, command.Protocol(err)
	}
	item, err := demux(frame)
	if err != nil {
		return PubSubItem{}, command.Protocol(err)
	}
	return item, nil
}

// IntoClient returns the inner SimpleClient. Per package docs, issue RESET
// before resuming request/response traffic.
func (s *SubscriptionStream) IntoClient() *SimpleClient {
	return s.client
}
