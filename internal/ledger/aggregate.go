package ledger

import "sort"

// AuthorTotal is the advance sum of one member.
type AuthorTotal struct {
	AuthorID string `json:"author_id"`
	Amount   int64  `json:"amount"`
}

// Summary holds the totals of a set of entries.
type Summary struct {
	CenterTotal  int64         `json:"center_total"`
	Advances     []AuthorTotal `json:"advances"`
	AdvanceTotal int64         `json:"advance_total"`
	Total        int64         `json:"total"`
	Count        int           `json:"count"`
}

// Advance returns the advance total of an author, zero when the author has none.
func (s Summary) Advance(authorID string) int64 {
	for _, a := range s.Advances {
		if a.AuthorID == authorID {
			return a.Amount
		}
	}
	return 0
}

// Aggregate sums entries. Authors in Advances appear in order of their first
// advance by ascending entry id, so the result does not depend on input order.
func Aggregate(entries []Entry) Summary {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var s Summary
	index := make(map[string]int)
	for _, e := range sorted {
		s.Count++
		switch e.Kind {
		case KindCenter:
			s.CenterTotal += e.Amount
		case KindAdvance:
			i, ok := index[e.AuthorID]
			if !ok {
				i = len(s.Advances)
				index[e.AuthorID] = i
				s.Advances = append(s.Advances, AuthorTotal{AuthorID: e.AuthorID})
			}
			s.Advances[i].Amount += e.Amount
			s.AdvanceTotal += e.Amount
		}
	}
	s.Total = s.CenterTotal + s.AdvanceTotal
	return s
}
