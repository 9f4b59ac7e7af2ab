package ledger

import "time"

// Account is the implicit per-address record shared by all engines.
type Account struct {
	InventoryCount    int
	LastWinAt         time.Time
	LastTradeActionAt time.Time
}

// Account returns the staged account for addr; unknown addresses read as the
// zero Account.
func (tx *Tx) Account(addr Address) Account {
	acc, _ := Rows(tx, tx.ledger.accounts).Get(addr)
	return acc
}

// PutAccount stages acc for addr. Only appliers should call it.
func (tx *Tx) PutAccount(addr Address, acc Account) {
	Rows(tx, tx.ledger.accounts).Put(addr, acc)
}

// UpdateAccount applies fn to the staged account for addr.
func (tx *Tx) UpdateAccount(addr Address, fn func(*Account)) {
	acc := tx.Account(addr)
	fn(&acc)
	tx.PutAccount(addr, acc)
}

// Account returns the committed account for addr.
func (l *Ledger) Account(addr Address) Account {
	var acc Account
	_ = l.Read(func(tx *Tx) error {
		acc = tx.Account(addr)
		return nil
	})
	return acc
}
