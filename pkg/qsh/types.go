package qsh

import "fmt"

// unixEpochOffsetMillis converts QSH timestamps (stored against the
// 0001-01-01 epoch) to Unix milliseconds.
const unixEpochOffsetMillis = 62_135_596_800_000

// ToUnixMillis converts a QSH timestamp to Unix milliseconds.
func ToUnixMillis(ts int64) int64 { return ts - unixEpochOffsetMillis }

// StreamKind identifies the record stream recorded in a QSH file.
type StreamKind byte

const (
	StreamQuotes   StreamKind = 0x10
	StreamDeals    StreamKind = 0x20
	StreamAuxInfo  StreamKind = 0x60
	StreamOrderLog StreamKind = 0x70
)

func (s StreamKind) String() string {
	switch s {
	case StreamQuotes:
		return "Quotes"
	case StreamDeals:
		return "Deals"
	case StreamAuxInfo:
		return "AuxInfo"
	case StreamOrderLog:
		return "OrderLog"
	default:
		return fmt.Sprintf("StreamKind(0x%02x)", byte(s))
	}
}

// Header is the decoded QSH container prefix.
type Header struct {
	Version       byte       `json:"version"`
	Recorder      string     `json:"recorder"`
	Comment       string     `json:"comment"`
	RecordingTime int64      `json:"recordingTime"`
	Stream        StreamKind `json:"stream"`
	Instrument    string     `json:"instrument"`
}

// Side is the book side of an order or deal.
type Side uint8

const (
	SideUnknown Side = 0
	SideBuy     Side = 1
	SideSell    Side = 2
)

func SideFromByte(b byte) Side {
	switch b {
	case 1:
		return SideBuy
	case 2:
		return SideSell
	default:
		return SideUnknown
	}
}

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "Buy"
	case SideSell:
		return "Sell"
	default:
		return "Unknown"
	}
}

// OrderType is derived from order flags.
type OrderType uint8

const (
	OrderUnknown OrderType = iota
	OrderLimit
	OrderIOK
	OrderFOK
)

func (t OrderType) String() string {
	switch t {
	case OrderLimit:
		return "Limit"
	case OrderIOK:
		return "IOK"
	case OrderFOK:
		return "FOK"
	default:
		return "Unknown"
	}
}

// OrderTypeFromFlags derives the order type. Counter wins over
// FillOrKill, which wins over Quote; a record carrying none of the
// three derives Unknown and is rejected downstream.
func OrderTypeFromFlags(f OLFlags) OrderType {
	switch {
	case f.Has(OLCounter):
		return OrderIOK
	case f.Has(OLFillOrKill):
		return OrderFOK
	case f.Has(OLQuote):
		return OrderLimit
	default:
		return OrderUnknown
	}
}

// OLMsgType is the order-log event kind derived from order flags and
// the residual amount.
type OLMsgType uint8

const (
	MsgUnknown OLMsgType = iota
	MsgAdd
	MsgFill
	MsgCancel
	MsgRemove
)

func (t OLMsgType) String() string {
	switch t {
	case MsgAdd:
		return "Add"
	case MsgFill:
		return "Fill"
	case MsgCancel:
		return "Cancel"
	case MsgRemove:
		return "Remove"
	default:
		return "Unknown"
	}
}

// MsgTypeOf derives the event kind for a decoded order-log record.
func MsgTypeOf(rec *OrderLog) OLMsgType {
	f := rec.OrderFlags
	switch {
	case f.Has(OLAdd):
		return MsgAdd
	case f.Has(OLFill):
		return MsgFill
	case f.Has(OLCanceled) || f.Has(OLCanceledGroup) || f.Has(OLMoved):
		return MsgCancel
	case f.Has(OLCrossTrade) || rec.AmountRest == 0:
		return MsgRemove
	default:
		return MsgUnknown
	}
}

// OLFlags is the 16-bit order-log flag mask.
type OLFlags uint16

const (
	OLNonZeroReplAct OLFlags = 1 << iota
	OLNewSession
	OLAdd
	OLFill
	OLBuy
	OLSell
	OLSnapshot
	OLQuote
	OLCounter
	OLNonSystem
	OLTxEnd
	OLFillOrKill
	OLMoved
	OLCanceled
	OLCanceledGroup
	OLCrossTrade
)

func (f OLFlags) Has(bit OLFlags) bool { return f&bit != 0 }

// OLEntryFlags is the 8-bit order-log field presence mask.
type OLEntryFlags uint8

const (
	EntryDateTime OLEntryFlags = 1 << iota
	EntryOrderID
	EntryPrice
	EntryAmount
	EntryAmountRest
	EntryDealID
	EntryDealPrice
	EntryOI
)

func (f OLEntryFlags) Has(bit OLEntryFlags) bool { return f&bit != 0 }

// DealFlags is the 8-bit deal-stream field presence mask. The two low
// bits carry the deal side.
type DealFlags uint8

const (
	DealTimestamp DealFlags = 1 << (iota + 2)
	DealID
	DealOrderID
	DealPrice
	DealAmount
	DealOI
)

func (f DealFlags) Has(bit DealFlags) bool { return f&bit != 0 }

// AuxFlags is the 8-bit aux-info field presence mask.
type AuxFlags uint8

const (
	AuxTimestamp AuxFlags = 1 << iota
	AuxAskTotal
	AuxBidTotal
	AuxOI
	AuxPrice
	AuxSessionInfo
	AuxRate
	AuxMessage
)

func (f AuxFlags) Has(bit AuxFlags) bool { return f&bit != 0 }

// OrderLog is one decoded order-log record. Values are in
// instrument-native units; Timestamp counts 0001-01-01-epoch
// milliseconds until converted with ToUnixMillis.
type OrderLog struct {
	FrameTimeDelta int64
	Timestamp      int64
	OrderID        int64
	Price          int64
	Amount         int64
	AmountRest     int64
	DealID         int64
	DealPrice      int64
	OI             int64
	OrderFlags     OLFlags
	EntryFlags     OLEntryFlags
	Side           Side
	Event          OLMsgType
	Type           OrderType
}

func (r OrderLog) String() string {
	return fmt.Sprintf("OrderLog{id=%d %s %s %s price=%d amount=%d rest=%d flags=%016b}",
		r.OrderID, r.Side, r.Event, r.Type, r.Price, r.Amount, r.AmountRest, uint16(r.OrderFlags))
}

// Quote is one price level of a Quotes record.
type Quote struct {
	Price  int64
	Volume int64
}

// Quotes is one decoded quotes record: the full per-price aggregate
// after applying the record's differential rows. Both sides are sorted
// by ascending price.
type Quotes struct {
	FrameTimeDelta int64
	Bids           []Quote
	Asks           []Quote
}

// Deal is one decoded deals-stream record.
type Deal struct {
	FrameTimeDelta int64
	Side           Side
	Timestamp      int64
	DealID         int64
	OrderID        int64
	Price          int64
	Amount         int64
	OI             int64
}

// AuxInfo is one decoded aux-info record.
type AuxInfo struct {
	FrameTimeDelta int64
	Timestamp      int64
	Price          int64
	AskTotal       int64
	BidTotal       int64
	OI             int64
	HiLimit        int64
	LowLimit       int64
	Deposit        float64
	Rate           float64
	Message        string
}

// L2Kind tags an L2Message variant.
type L2Kind uint8

const (
	// L2Quote carries the new aggregate size of a price level.
	L2Quote L2Kind = iota
	// L2Remove signals a price level is gone.
	L2Remove
	// L2Clear signals a book reset on a new session.
	L2Clear
)

// L2Message is one incremental book update.
type L2Message struct {
	Kind  L2Kind
	Side  Side
	Price int64
	Size  int64
}

// L3Kind tags an L3Message variant.
type L3Kind uint8

const (
	L3Add L3Kind = iota
	L3Cancel
	L3Trade
)

// L3Message is one canonical per-order action produced by the MOEX
// order-log translation.
type L3Message struct {
	Kind L3Kind
	Rec  OrderLog
}
