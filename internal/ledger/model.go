package ledger

import "time"

// Kind tells whether an entry was paid from the shared pot or fronted by a member.
type Kind string

const (
	KindCenter  Kind = "center"
	KindAdvance Kind = "advance"
)

func (k Kind) Valid() bool {
	return k == KindCenter || k == KindAdvance
}

// Label returns the short Thai label used in chat replies.
func (k Kind) Label() string {
	switch k {
	case KindCenter:
		return "กลาง"
	case KindAdvance:
		return "ส่วนตัว"
	}
	return string(k)
}

// Entry is a single ledger row. Entries are never edited, only deleted.
type Entry struct {
	ID             int64     `json:"id"`
	ConversationID string    `json:"conversation_id"`
	AuthorID       string    `json:"author_id"`
	Kind           Kind      `json:"kind"`
	Amount         int64     `json:"amount"`
	Note           string    `json:"note"`
	RecordedAt     time.Time `json:"recorded_at"`
}
