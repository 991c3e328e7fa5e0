package commands

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/susu3304/kongklang/internal/ledger"
)

// Command is one parsed chat command.
type Command interface {
	// Name is a stable identifier used for metrics and logs.
	Name() string
	isCommand()
}

type Record struct {
	Kind   ledger.Kind
	Amount int64
	Note   string
}

type DeleteRequest struct {
	ID int64
}

type DeleteConfirm struct {
	ID int64
}

type Summarize struct {
	Scope ledger.Scope
}

type ListRange struct {
	Scope ledger.Scope
}

type ListRecent struct {
	Limit int
}

type ResetMonth struct{}

type Backup struct{}

func (Record) isCommand()        {}
func (DeleteRequest) isCommand() {}
func (DeleteConfirm) isCommand() {}
func (Summarize) isCommand()     {}
func (ListRange) isCommand()     {}
func (ListRecent) isCommand()    {}
func (ResetMonth) isCommand()    {}
func (Backup) isCommand()        {}

func (c Record) Name() string      { return "record_" + string(c.Kind) }
func (DeleteRequest) Name() string { return "delete_request" }
func (DeleteConfirm) Name() string { return "delete_confirm" }
func (Summarize) Name() string     { return "summarize" }
func (ListRange) Name() string     { return "list_range" }
func (ListRecent) Name() string    { return "list_recent" }
func (ResetMonth) Name() string    { return "reset_month" }
func (Backup) Name() string        { return "backup" }

const (
	DefaultRecentLimit = 5
	MaxRecentLimit     = 50
)

type keyword struct {
	word  string
	parse func(arg string) (Command, bool)
}

// keywords is scanned in order, so a keyword must come before any shorter
// keyword it starts with.
var keywords = []keyword{
	{"กลาง", recordOf(ledger.KindCenter)},
	{"center", recordOf(ledger.KindCenter)},
	{"ส่วนตัว", recordOf(ledger.KindAdvance)},
	{"personal", recordOf(ledger.KindAdvance)},

	{"ลบ", deleteRequest},
	{"del", deleteRequest},
	{"ยืนยันลบ", deleteConfirm},
	{"ยืนยัน", deleteConfirm},
	{"confirm", deleteConfirm},

	{"สรุปวันนี้", fixed(Summarize{Scope: ledger.ScopeToday{}})},
	{"สรุปเดือนนี้", fixed(Summarize{Scope: ledger.ScopeThisMonth{}})},
	{"สรุปเดือน", summarizeMonth},
	{"สรุปทั้งหมด", fixed(Summarize{Scope: ledger.ScopeAll{}})},
	{"สรุปย้อนหลัง", summarizePastDays},
	{"สรุป", summarizeDay},
	{"sum", summarizeToken},

	{"ดูรายการล่าสุด", listRecent},
	{"ดูรายการวันนี้", fixed(ListRange{Scope: ledger.ScopeToday{}})},
	{"ดูรายการเดือน", listMonth},
	{"ดูรายการ", listDay},
	{"list", listRecent},

	{"รีเซ็ตเดือนนี้", fixed(ResetMonth{})},
	{"reset month", fixed(ResetMonth{})},

	{"สำรองข้อมูล", fixed(Backup{})},
	{"backup", fixed(Backup{})},
}

// Parse maps a chat message to a command. It reports false when the text is
// not a command, in which case the caller answers with the help text.
func Parse(text string) (Command, bool) {
	t := strings.TrimSpace(text)
	for _, kw := range keywords {
		arg, ok := cutKeyword(t, kw.word)
		if !ok {
			continue
		}
		return kw.parse(arg)
	}
	return nil, false
}

// cutKeyword matches word case-insensitively at the start of t. The keyword
// must end the text or be followed by a space, a digit or '#'.
func cutKeyword(t, word string) (string, bool) {
	if len(t) < len(word) || !strings.EqualFold(t[:len(word)], word) {
		return "", false
	}
	rest := t[len(word):]
	if rest == "" {
		return "", true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	if unicode.IsSpace(r) || isDigit(r) || r == '#' {
		return strings.TrimSpace(rest), true
	}
	return "", false
}

func fixed(c Command) func(string) (Command, bool) {
	return func(arg string) (Command, bool) {
		if arg != "" {
			return nil, false
		}
		return c, true
	}
}

func recordOf(kind ledger.Kind) func(string) (Command, bool) {
	return func(arg string) (Command, bool) {
		// A record is one line; anything after a line break is not its note.
		if strings.ContainsAny(arg, "\r\n") {
			return nil, false
		}
		amount, rest, ok := scanAmount(arg)
		if !ok {
			return nil, false
		}
		return Record{Kind: kind, Amount: amount, Note: strings.TrimSpace(rest)}, true
	}
}

func deleteRequest(arg string) (Command, bool) {
	id, ok := parseID(arg)
	if !ok {
		return nil, false
	}
	return DeleteRequest{ID: id}, true
}

func deleteConfirm(arg string) (Command, bool) {
	id, ok := parseID(arg)
	if !ok {
		return nil, false
	}
	return DeleteConfirm{ID: id}, true
}

func summarizeDay(arg string) (Command, bool) {
	d, ok := ledger.ParseDate(arg)
	if !ok {
		return nil, false
	}
	return Summarize{Scope: d}, true
}

func summarizeMonth(arg string) (Command, bool) {
	m, ok := ledger.ParseMonth(arg)
	if !ok {
		return nil, false
	}
	return Summarize{Scope: m}, true
}

// summarizePastDays accepts "N" or "N วัน", with or without a space before วัน.
func summarizePastDays(arg string) (Command, bool) {
	digits := strings.TrimSpace(strings.TrimSuffix(arg, "วัน"))
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 || !allDigits(digits) {
		return nil, false
	}
	return Summarize{Scope: ledger.ScopePastDays{Days: n}}, true
}

// summarizeToken handles the English form: sum today|all|YYYY-MM-DD|YYYY-MM.
func summarizeToken(arg string) (Command, bool) {
	switch strings.ToLower(arg) {
	case "", "today":
		return Summarize{Scope: ledger.ScopeToday{}}, true
	case "month":
		return Summarize{Scope: ledger.ScopeThisMonth{}}, true
	case "all":
		return Summarize{Scope: ledger.ScopeAll{}}, true
	}
	if d, ok := ledger.ParseDate(arg); ok {
		return Summarize{Scope: d}, true
	}
	if m, ok := ledger.ParseMonth(arg); ok {
		return Summarize{Scope: m}, true
	}
	return nil, false
}

func listDay(arg string) (Command, bool) {
	d, ok := ledger.ParseDate(arg)
	if !ok {
		return nil, false
	}
	return ListRange{Scope: d}, true
}

func listMonth(arg string) (Command, bool) {
	m, ok := ledger.ParseMonth(arg)
	if !ok {
		return nil, false
	}
	return ListRange{Scope: m}, true
}

func listRecent(arg string) (Command, bool) {
	if arg == "" {
		return ListRecent{Limit: DefaultRecentLimit}, true
	}
	if !allDigits(arg) {
		return nil, false
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		n = MaxRecentLimit
	}
	return ListRecent{Limit: max(1, min(n, MaxRecentLimit))}, true
}

// parseID reads "[#]<digits>" with nothing after it.
func parseID(arg string) (int64, bool) {
	s := strings.TrimSpace(strings.TrimPrefix(arg, "#"))
	if !allDigits(s) {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// scanAmount reads a positive whole amount from the start of s. Thousands may
// be grouped with ',' ("1,200") anywhere, or with ' ' ("1 200") only when the
// groups run to the end of s; otherwise "45 100 baht" would swallow the note.
// Decimals, signs, zero and values beyond int64 are rejected.
// The text after the amount is returned untrimmed.
func scanAmount(s string) (int64, string, bool) {
	i := 0
	for i < len(s) && isDigitByte(s[i]) {
		i++
	}
	if i == 0 {
		return 0, "", false
	}
	var digits strings.Builder
	digits.WriteString(s[:i])
	for isGroup(s, i, ',') {
		digits.WriteString(s[i+1 : i+4])
		i += 4
	}
	j := i
	for isGroup(s, j, ' ') {
		j += 4
	}
	if j > i && j == len(s) {
		digits.WriteString(strings.ReplaceAll(s[i:j], " ", ""))
		i = j
	}
	rest := s[i:]
	if len(rest) >= 2 && (rest[0] == '.' || rest[0] == ',') && isDigitByte(rest[1]) {
		return 0, "", false
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil || n <= 0 {
		return 0, "", false
	}
	return n, rest, true
}

// isGroup reports whether s[i:] starts with sep and exactly three digits that
// end the text or are followed by a space or another separator.
func isGroup(s string, i int, sep byte) bool {
	if i+4 > len(s) || s[i] != sep || !allDigits(s[i+1:i+4]) {
		return false
	}
	return i+4 == len(s) || s[i+4] == ' ' || s[i+4] == sep
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isDigitByte(b byte) bool { return b >= '0' && b <= '9' }

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigitByte(s[i]) {
			return false
		}
	}
	return true
}
