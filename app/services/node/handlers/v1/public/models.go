package public

import (
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
)

// submitTx is the wire model for a transaction submission. The field
// names are fixed for interoperability with other node implementations.
type submitTx struct {
	Sender    string  `json:"sender" validate:"required"`
	Recipient string  `json:"recipient" validate:"required"`
	Amount    float64 `json:"amount" validate:"gte=0"`
	Signature string  `json:"signature" validate:"required"`
}

// toLedgerTx converts the wire model to a ledger transaction.
func (st submitTx) toLedgerTx() ledger.Tx {
	return ledger.NewTx(st.Sender, st.Recipient, st.Amount, st.Signature)
}

// chainInfo is the wire model for a full chain report.
type chainInfo struct {
	Length int            `json:"length"`
	Chain  []ledger.Block `json:"chain"`
}
