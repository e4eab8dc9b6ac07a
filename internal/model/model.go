package model

import "github.com/shopspring/decimal"

func init() {
	// Money fields are serialised as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// All returns every persisted model, in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Client{},
		&Product{},
		&Order{},
		&OrderProduct{},
		&Invoice{},
		&InvoiceSequence{},
		&EmailLog{},
	}
}
