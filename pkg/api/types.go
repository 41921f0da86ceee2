package api

import "github.com/qscalp/qsh-go/pkg/qsh"

// REST and WebSocket payload types.

// PriceLevel is a (price, volume) tuple in instrument-native units.
type PriceLevel struct {
	Price  int64 `json:"price"`
	Volume int64 `json:"volume"`
}

// BookSnapshot is the current book state of a running replay.
type BookSnapshot struct {
	Instrument string       `json:"instrument"`
	Bids       []PriceLevel `json:"bids"` // best bid first
	Asks       []PriceLevel `json:"asks"` // best ask first
	MidPrice   float64      `json:"midPrice"`
	Timestamp  int64        `json:"timestamp"` // unix milliseconds
}

// L2Event is the JSON view of one L2 message.
type L2Event struct {
	Kind  string `json:"kind"` // "quote" | "remove" | "clear"
	Side  string `json:"side,omitempty"`
	Price int64  `json:"price,omitempty"`
	Size  int64  `json:"size,omitempty"`
}

func toL2Event(m qsh.L2Message) L2Event {
	switch m.Kind {
	case qsh.L2Quote:
		return L2Event{Kind: "quote", Side: m.Side.String(), Price: m.Price, Size: m.Size}
	case qsh.L2Remove:
		return L2Event{Kind: "remove", Side: m.Side.String(), Price: m.Price}
	default:
		return L2Event{Kind: "clear"}
	}
}

func toL2Events(msgs []qsh.L2Message) []L2Event {
	out := make([]L2Event, len(msgs))
	for i, m := range msgs {
		out[i] = toL2Event(m)
	}
	return out
}

// EventBatch is one transaction's events, as stored or streamed.
type EventBatch struct {
	Seq    uint64    `json:"seq"`
	Events []L2Event `json:"events"`
}

// ReplayUpdate is broadcast per transaction on channel
// "events:<instrument>".
type ReplayUpdate struct {
	Type       string    `json:"type"` // "events"
	Instrument string    `json:"instrument"`
	Seq        uint64    `json:"seq"`
	Events     []L2Event `json:"events"`
}

// WSSubscribeRequest is sent by clients to manage channel
// subscriptions.
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g. ["events:Si-3.20"]
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
