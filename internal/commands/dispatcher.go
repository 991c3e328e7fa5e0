package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/susu3304/kongklang/internal/ledger"
	"github.com/susu3304/kongklang/internal/metrics"
	"github.com/susu3304/kongklang/internal/names"
)

// Message is one inbound chat text, already stripped of platform details.
type Message struct {
	Source         names.Source
	ConversationID string
	AuthorID       string
	Text           string
}

// Reply is what the adapter should send back. Recognized is false when the
// text was not a command and Texts holds the help message.
type Reply struct {
	Texts      []string
	Recognized bool
}

type NameResolver interface {
	Resolve(ctx context.Context, src names.Source, userID string) string
}

// Dispatcher runs parsed commands against the ledger and formats the replies.
type Dispatcher struct {
	book       *ledger.Book
	names      NameResolver
	pending    *PendingDeletions
	metrics    *metrics.Metrics
	limit      int
	exportBase string
	exportLink bool
}

type DispatcherOption func(*Dispatcher)

// WithMessageLimit sets the per-message character budget used for chunking.
func WithMessageLimit(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.limit = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithExportBase makes backup replies point at the admin export endpoint
// under base. Without it the reply only states the entry count.
func WithExportBase(base string) DispatcherOption {
	return func(d *Dispatcher) {
		d.exportBase = strings.TrimSuffix(base, "/")
		d.exportLink = true
	}
}

func NewDispatcher(book *ledger.Book, resolver NameResolver, pending *PendingDeletions, opts ...DispatcherOption) *Dispatcher {
	if pending == nil {
		pending = NewPendingDeletions(DefaultConfirmWindow)
	}
	if resolver == nil {
		resolver = names.NewResolver(nil)
	}
	d := &Dispatcher{
		book:    book,
		names:   resolver,
		pending: pending,
		limit:   LineMessageLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle parses and runs one message. A store failure is logged, answered
// with a generic error text and returned so the caller can count it.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) (Reply, error) {
	cmd, ok := Parse(msg.Text)
	if !ok {
		d.metrics.ObserveCommand("unknown", "miss", 0)
		return Reply{Texts: []string{helpText}}, nil
	}

	start := time.Now()
	text, err := d.run(ctx, msg, cmd)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		slog.Error("command failed",
			"command", cmd.Name(),
			"conversation_id", msg.ConversationID,
			"author_id", msg.AuthorID,
			"error", err,
		)
		text = systemErrorText
	}
	d.metrics.ObserveCommand(cmd.Name(), outcome, time.Since(start))

	return Reply{
		Texts:      Chunk(strings.Split(text, "\n"), d.limit, MaxChunks),
		Recognized: true,
	}, err
}

func (d *Dispatcher) run(ctx context.Context, msg Message, cmd Command) (string, error) {
	switch c := cmd.(type) {
	case Record:
		return d.record(ctx, msg, c)
	case DeleteRequest:
		return d.deleteRequest(ctx, msg, c)
	case DeleteConfirm:
		return d.deleteConfirm(ctx, msg, c)
	case Summarize:
		return d.summarize(ctx, msg, c)
	case ListRange:
		return d.listRange(ctx, msg, c)
	case ListRecent:
		return d.listRecent(ctx, msg, c)
	case ResetMonth:
		n, err := d.book.ResetCurrentMonth(ctx, msg.ConversationID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("ล้างข้อมูลเดือนนี้ %d รายการแล้ว", n), nil
	case Backup:
		return d.backup(ctx, msg)
	}
	return "", fmt.Errorf("unhandled command %T", cmd)
}

func (d *Dispatcher) record(ctx context.Context, msg Message, c Record) (string, error) {
	e, err := d.book.Record(ctx, msg.ConversationID, msg.AuthorID, c.Kind, c.Amount, c.Note)
	if err != nil {
		return "", err
	}
	name := d.names.Resolve(ctx, msg.Source, msg.AuthorID)
	return fmt.Sprintf("บันทึกแล้ว #%d · %s · %d · %s (โดย %s)",
		e.ID, accountLabel(e.Kind), e.Amount, noteOrDash(e.Note), name), nil
}

func (d *Dispatcher) deleteRequest(ctx context.Context, msg Message, c DeleteRequest) (string, error) {
	e, err := d.book.Get(ctx, msg.ConversationID, c.ID)
	if errors.Is(err, ledger.ErrNotFound) {
		return notFoundText(c.ID), nil
	}
	if err != nil {
		return "", err
	}
	d.pending.Request(msg.ConversationID, msg.AuthorID, e.ID)
	return fmt.Sprintf("ต้องการลบรายการ #%d ใช่ไหม? (พิมพ์ ยืนยัน%d ภายใน %s เพื่อลบ)\n%s",
		e.ID, e.ID, formatWindow(d.pending.Window()), d.entryLine(*e)), nil
}

func (d *Dispatcher) deleteConfirm(ctx context.Context, msg Message, c DeleteConfirm) (string, error) {
	result, pendingID := d.pending.Confirm(msg.ConversationID, msg.AuthorID, c.ID)
	switch result {
	case ConfirmNothingPending:
		return fmt.Sprintf("ยังไม่มีคำขอลบรายการ #%d (พิมพ์ ลบ #%d ก่อน)", c.ID, c.ID), nil
	case ConfirmExpired:
		return fmt.Sprintf("คำขอลบรายการ #%d หมดเวลาแล้ว (พิมพ์ ลบ #%d ใหม่อีกครั้ง)", pendingID, pendingID), nil
	case ConfirmMismatch:
		return fmt.Sprintf("หมายเลขไม่ตรงกับคำขอลบ #%d รายการยังไม่ถูกลบ (พิมพ์ ยืนยัน%d เพื่อลบ)", pendingID, pendingID), nil
	}

	ok, err := d.book.Delete(ctx, msg.ConversationID, c.ID)
	if err != nil {
		return "", err
	}
	if !ok {
		return notFoundText(c.ID), nil
	}
	return fmt.Sprintf("ลบรายการ #%d แล้ว", c.ID), nil
}

func (d *Dispatcher) summarize(ctx context.Context, msg Message, c Summarize) (string, error) {
	s, err := d.book.Summarize(ctx, msg.ConversationID, c.Scope)
	if err != nil {
		return "", err
	}
	return d.formatSummary(ctx, msg.Source, c.Scope, s), nil
}

func (d *Dispatcher) listRange(ctx context.Context, msg Message, c ListRange) (string, error) {
	entries, err := d.book.Entries(ctx, msg.ConversationID, c.Scope)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return fmt.Sprintf("ยังไม่มีรายการ (%s)", c.Scope.Label()), nil
	}
	lines := []string{fmt.Sprintf("รายการ%s (%d รายการ):", c.Scope.Label(), len(entries))}
	for _, e := range entries {
		lines = append(lines, d.entryLine(e))
	}
	return strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) listRecent(ctx context.Context, msg Message, c ListRecent) (string, error) {
	entries, err := d.book.Recent(ctx, msg.ConversationID, c.Limit)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return emptyText, nil
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, d.entryLine(e))
	}
	return strings.Join(lines, "\n"), nil
}

// backupPreviewLines is how many CSV lines, header included, a chat reply shows.
const backupPreviewLines = 10

func (d *Dispatcher) backup(ctx context.Context, msg Message) (string, error) {
	entries, err := d.book.Export(ctx, msg.ConversationID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := ledger.WriteCSV(&b, entries, d.book.Location()); err != nil {
		return "", err
	}
	lines := strings.Split(b.String(), "\n")
	if len(lines) > backupPreviewLines {
		lines = lines[:backupPreviewLines]
	}
	if d.exportLink {
		lines = append(lines, fmt.Sprintf("...(ทั้งหมด %d รายการ ไฟล์เต็มดาวน์โหลดได้ที่ %s)",
			len(entries), d.exportPath(msg.ConversationID)))
	} else {
		lines = append(lines, fmt.Sprintf("...(ทั้งหมด %d รายการ)", len(entries)))
	}
	return strings.Join(lines, "\n"), nil
}

func (d *Dispatcher) exportPath(conversationID string) string {
	return d.exportBase + "/api/conversations/" + conversationID + "/export"
}

func (d *Dispatcher) entryLine(e ledger.Entry) string {
	line := fmt.Sprintf("#%d %s %d", e.ID, e.Kind.Label(), e.Amount)
	if e.Note != "" {
		line += " " + e.Note
	}
	return line + " (" + e.RecordedAt.In(d.book.Location()).Format("2006-01-02 15:04") + ")"
}
