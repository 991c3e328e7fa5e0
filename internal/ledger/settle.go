package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Pair is the two-party settlement between the first two advance payers.
// Settle > 0 means B owes A, Settle < 0 means A owes B.
type Pair struct {
	A        string          `json:"a"`
	B        string          `json:"b"`
	AdvanceA int64           `json:"advance_a"`
	AdvanceB int64           `json:"advance_b"`
	Settle   decimal.Decimal `json:"settle"`
}

// Owed is the absolute amount to transfer.
func (p Pair) Owed() decimal.Decimal {
	return p.Settle.Abs()
}

var two = decimal.NewFromInt(2)

// SettlePair splits the difference between the first two advance payers in half.
// A missing party has an empty id and a zero advance.
func SettlePair(s Summary) Pair {
	var p Pair
	if len(s.Advances) > 0 {
		p.A, p.AdvanceA = s.Advances[0].AuthorID, s.Advances[0].Amount
	}
	if len(s.Advances) > 1 {
		p.B, p.AdvanceB = s.Advances[1].AuthorID, s.Advances[1].Amount
	}
	p.Settle = decimal.NewFromInt(p.AdvanceA - p.AdvanceB).Div(two)
	return p
}

// Transfer is one payment needed to even out advances.
type Transfer struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// SettleAll evens out advances across every advance payer so that each one
// ends up carrying the same share. Balances are kept scaled by the number of
// payers so the matching runs on exact integers; amounts are divided back and
// rounded to two places only when a transfer is emitted.
func SettleAll(s Summary) []Transfer {
	n := int64(len(s.Advances))
	if n < 2 {
		return nil
	}

	type bal struct {
		uid   string
		order int
		net   int64 // scaled by n
	}
	var pos, neg []bal
	for i, a := range s.Advances {
		net := a.Amount*n - s.AdvanceTotal
		if net > 0 {
			pos = append(pos, bal{uid: a.AuthorID, order: i, net: net})
		} else if net < 0 {
			neg = append(neg, bal{uid: a.AuthorID, order: i, net: -net})
		}
	}
	byNet := func(b []bal) func(i, j int) bool {
		return func(i, j int) bool {
			if b[i].net != b[j].net {
				return b[i].net > b[j].net
			}
			return b[i].order < b[j].order
		}
	}
	sort.Slice(pos, byNet(pos))
	sort.Slice(neg, byNet(neg))

	scale := decimal.NewFromInt(n)
	var transfers []Transfer
	i, j := 0, 0
	for i < len(pos) && j < len(neg) {
		amt := min(pos[i].net, neg[j].net)
		transfers = append(transfers, Transfer{
			From:   neg[j].uid,
			To:     pos[i].uid,
			Amount: decimal.NewFromInt(amt).Div(scale).Round(2),
		})
		pos[i].net -= amt
		neg[j].net -= amt
		if pos[i].net == 0 {
			i++
		}
		if neg[j].net == 0 {
			j++
		}
	}
	return transfers
}
