package book

import "github.com/qscalp/qsh-go/pkg/qsh"

// SystemRecord reports whether a record belongs to the regular order
// flow: no NonSystem or NonZeroReplAct flag and a known side. Applied
// before transaction grouping.
func SystemRecord(rec *qsh.OrderLog) bool {
	return !rec.OrderFlags.Has(qsh.OLNonSystem) &&
		!rec.OrderFlags.Has(qsh.OLNonZeroReplAct) &&
		rec.Side != qsh.SideUnknown
}

// TxEnd reports whether the record closes its transaction.
func TxEnd(rec *qsh.OrderLog) bool {
	return rec.OrderFlags.Has(qsh.OLTxEnd)
}

// FIOKWithTrades filters whole transactions: an IOK/FOK opener is kept
// only when the transaction produced at least one fill (more than two
// records); anything else passes unconditionally.
func FIOKWithTrades(tx []qsh.OrderLog) bool {
	switch qsh.OrderTypeFromFlags(tx[0].OrderFlags) {
	case qsh.OrderIOK, qsh.OrderFOK:
		return len(tx) > 2
	default:
		return true
	}
}
