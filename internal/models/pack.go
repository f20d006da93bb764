package models

import (
	"github.com/shopspring/decimal"
)

// Pack is a purchasable credit bundle. The catalog is static; the
// checkout webhook validates pack ids against it.
type Pack struct {
	ID      string
	Title   string
	Credits int64
	Price   decimal.Decimal
}

var Packs = []Pack{
	{ID: "starter", Title: "Starter", Credits: 100, Price: decimal.New(499, -2)},
	{ID: "plus", Title: "Plus", Credits: 300, Price: decimal.New(1199, -2)},
	{ID: "studio", Title: "Studio", Credits: 1000, Price: decimal.New(2999, -2)},
}

// PackByID returns the pack with the given id or false
func PackByID(id string) (Pack, bool) {
	for _, p := range Packs {
		if p.ID == id {
			return p, true
		}
	}
	return Pack{}, false
}
