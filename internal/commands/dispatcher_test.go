package commands

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/kongklang/internal/db/sqlite"
	"github.com/susu3304/kongklang/internal/ledger"
	"github.com/susu3304/kongklang/internal/names"
)

var bangkok = time.FixedZone("ICT", 7*60*60)

type stubNames map[string]string

func (s stubNames) Resolve(_ context.Context, _ names.Source, userID string) string {
	if n, ok := s[userID]; ok {
		return n
	}
	return names.Fallback(userID)
}

type testEnv struct {
	d       *Dispatcher
	now     time.Time
	pending *PendingDeletions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.InitSchema(context.Background()))

	env := &testEnv{now: time.Date(2025, 3, 15, 10, 0, 0, 0, bangkok)}
	book := ledger.NewBook(store, bangkok, ledger.WithClock(func() time.Time { return env.now }))
	env.pending = NewPendingDeletions(2 * time.Minute)
	env.pending.now = func() time.Time { return env.now }
	env.d = NewDispatcher(book, stubNames{"Ualice": "Alice", "Ubob": "Bob", "Ucarol": "Carol"}, env.pending,
		WithExportBase("https://bot.example.com/"))
	return env
}

func (env *testEnv) say(t *testing.T, author, text string) string {
	t.Helper()
	reply, err := env.d.Handle(context.Background(), Message{
		Source:         names.Source{Type: names.SourceGroup, GroupID: "G1", UserID: author},
		ConversationID: "G1",
		AuthorID:       author,
		Text:           text,
	})
	require.NoError(t, err)
	require.True(t, reply.Recognized, text)
	require.NotEmpty(t, reply.Texts)
	return strings.Join(reply.Texts, "\n")
}

func TestHandleUnknownReturnsHelp(t *testing.T) {
	env := newTestEnv(t)
	reply, err := env.d.Handle(context.Background(), Message{ConversationID: "G1", AuthorID: "Ualice", Text: "hello"})
	require.NoError(t, err)
	assert.False(t, reply.Recognized)
	require.Len(t, reply.Texts, 1)
	assert.Contains(t, reply.Texts[0], "กลาง100 ค่าน้ำ")
}

func TestRecordListSummarize(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, "บันทึกแล้ว #1 · บัญชีกลาง · 100 · ค่าน้ำ (โดย Alice)", env.say(t, "Ualice", "กลาง100 ค่าน้ำ"))
	assert.Equal(t, "บันทึกแล้ว #2 · ส่วนตัวออกก่อน · 40 · - (โดย Alice)", env.say(t, "Ualice", "ส่วนตัว 40"))
	env.now = env.now.Add(time.Minute)
	assert.Equal(t, "บันทึกแล้ว #3 · ส่วนตัวออกก่อน · 9 · กาแฟ (โดย Bob)", env.say(t, "Ubob", "ส่วนตัว9 กาแฟ"))

	assert.Equal(t,
		"#3 ส่วนตัว 9 กาแฟ (2025-03-15 10:01)\n"+
			"#2 ส่วนตัว 40 (2025-03-15 10:00)\n"+
			"#1 กลาง 100 ค่าน้ำ (2025-03-15 10:00)",
		env.say(t, "Ubob", "ดูรายการล่าสุด"))

	assert.Equal(t,
		"สรุป (วันนี้):\n"+
			"- กลางรวม: 100\n"+
			"- ออกก่อนของ Alice: 40\n"+
			"- ออกก่อนของ Bob: 9\n"+
			"- เคลียร์กัน: Bob ต้องคืน Alice = 15.5\n"+
			"รายการออกก่อนรวม:\n"+
			"• Alice: 40\n"+
			"• Bob: 9",
		env.say(t, "Ubob", "สรุปวันนี้"))

	list := env.say(t, "Ubob", "ดูรายการวันนี้")
	assert.True(t, strings.HasPrefix(list, "รายการวันนี้ (3 รายการ):\n#1 กลาง 100 ค่าน้ำ"), list)

	// Tomorrow the day summary is empty but the month still has everything.
	env.now = env.now.Add(24 * time.Hour)
	assert.Contains(t, env.say(t, "Ubob", "สรุปวันนี้"), "- เคลียร์กัน: ไม่ต้องคืนกัน")
	assert.Contains(t, env.say(t, "Ubob", "สรุปเดือน 2025-03"), "- กลางรวม: 100")
	assert.Contains(t, env.say(t, "Ubob", "สรุปย้อนหลัง 1 วัน"), "- กลางรวม: 100")
	assert.Contains(t, env.say(t, "Ubob", "สรุปทั้งหมด"), "- กลางรวม: 100")
	assert.Equal(t, "ยังไม่มีรายการ (วันนี้)", env.say(t, "Ubob", "ดูรายการวันนี้"))
}

func TestSummarizeEmptyUsesPlaceholders(t *testing.T) {
	env := newTestEnv(t)
	got := env.say(t, "Ualice", "สรุปวันนี้")
	assert.Equal(t,
		"สรุป (วันนี้):\n- กลางรวม: 0\n- ออกก่อนของ A: 0\n- ออกก่อนของ B: 0\n- เคลียร์กัน: ไม่ต้องคืนกัน",
		got)
	assert.Equal(t, "ยังไม่มีรายการ", env.say(t, "Ualice", "ดูรายการล่าสุด"))
}

func TestSummarizeThreePayersUsesFairSplit(t *testing.T) {
	env := newTestEnv(t)
	env.say(t, "Ualice", "ส่วนตัว 90")
	env.say(t, "Ubob", "ส่วนตัว 30")
	env.say(t, "Ucarol", "ส่วนตัว 30")

	got := env.say(t, "Ualice", "สรุปวันนี้")
	assert.Contains(t, got, "- ออกก่อนรวม: 150")
	assert.Contains(t, got, "- เคลียร์กัน (หารเท่ากัน 3 คน):")
	assert.Contains(t, got, "  Bob ต้องคืน Alice = 20")
	assert.Contains(t, got, "  Carol ต้องคืน Alice = 20")
	assert.Contains(t, got, "• Carol: 30")
}

func TestDeleteFlow(t *testing.T) {
	env := newTestEnv(t)
	env.say(t, "Ualice", "กลาง 50 ข้าว")
	env.say(t, "Ualice", "กลาง 60 น้ำ")

	assert.Equal(t, "ไม่พบรายการ #99", env.say(t, "Ualice", "ลบ #99"))
	assert.Equal(t, "ยังไม่มีคำขอลบรายการ #1 (พิมพ์ ลบ #1 ก่อน)", env.say(t, "Ualice", "ยืนยัน1"))

	got := env.say(t, "Ualice", "ลบ #1")
	assert.Equal(t, "ต้องการลบรายการ #1 ใช่ไหม? (พิมพ์ ยืนยัน1 ภายใน 2 นาที เพื่อลบ)\n#1 กลาง 50 ข้าว (2025-03-15 10:00)", got)

	// Confirming a different id keeps the request and the entry.
	assert.Contains(t, env.say(t, "Ualice", "ยืนยัน2"), "หมายเลขไม่ตรงกับคำขอลบ #1")
	assert.Contains(t, env.say(t, "Ualice", "ดูรายการล่าสุด"), "#1 กลาง 50")

	// Another member cannot confirm Alice's request.
	assert.Contains(t, env.say(t, "Ubob", "ยืนยัน1"), "ยังไม่มีคำขอลบรายการ #1")

	assert.Equal(t, "ลบรายการ #1 แล้ว", env.say(t, "Ualice", "ยืนยัน1"))
	assert.NotContains(t, env.say(t, "Ualice", "ดูรายการล่าสุด"), "#1 ")
}

func TestDeleteConfirmExpires(t *testing.T) {
	env := newTestEnv(t)
	env.say(t, "Ualice", "กลาง 50")
	env.say(t, "Ualice", "ลบ 1")

	env.now = env.now.Add(3 * time.Minute)
	assert.Equal(t, "คำขอลบรายการ #1 หมดเวลาแล้ว (พิมพ์ ลบ #1 ใหม่อีกครั้ง)", env.say(t, "Ualice", "ยืนยัน 1"))
	assert.Contains(t, env.say(t, "Ualice", "ดูรายการล่าสุด"), "#1 กลาง 50")
}

func TestDeleteConfirmAfterConcurrentDelete(t *testing.T) {
	env := newTestEnv(t)
	env.say(t, "Ualice", "กลาง 50")
	env.say(t, "Ualice", "ลบ 1")
	env.say(t, "Ubob", "ลบ 1")

	assert.Equal(t, "ลบรายการ #1 แล้ว", env.say(t, "Ubob", "ยืนยัน1"))
	assert.Equal(t, "ไม่พบรายการ #1", env.say(t, "Ualice", "ยืนยัน1"))
}

func TestResetMonth(t *testing.T) {
	env := newTestEnv(t)
	env.say(t, "Ualice", "กลาง 10")
	env.say(t, "Ualice", "กลาง 20")
	env.now = time.Date(2025, 4, 1, 0, 0, 0, 0, bangkok)
	env.say(t, "Ualice", "กลาง 30")

	assert.Equal(t, "ล้างข้อมูลเดือนนี้ 1 รายการแล้ว", env.say(t, "Ualice", "รีเซ็ตเดือนนี้"))
	assert.Contains(t, env.say(t, "Ualice", "สรุปเดือน 2025-03"), "- กลางรวม: 30")
}

func TestBackup(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 12; i++ {
		env.say(t, "Ualice", `กลาง 10 say "hi"`)
	}

	got := env.say(t, "Ualice", "backup")
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 11)
	assert.Equal(t, "id,type,amount,note,time", lines[0])
	assert.Equal(t, `1,center,10,"say ""hi""",2025-03-15 10:00`, lines[1])
	assert.Equal(t, "...(ทั้งหมด 12 รายการ ไฟล์เต็มดาวน์โหลดได้ที่ https://bot.example.com/api/conversations/G1/export)", lines[10])
}

func TestBackupWithoutAdminExport(t *testing.T) {
	env := newTestEnv(t)
	env.d.exportBase, env.d.exportLink = "", false
	env.say(t, "Ualice", "กลาง 10")

	lines := strings.Split(env.say(t, "Ualice", "backup"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "...(ทั้งหมด 1 รายการ)", lines[2])
}

func TestHandleChunksLongListing(t *testing.T) {
	env := newTestEnv(t)
	env.d.limit = 200
	long := strings.Repeat("ยาว", 20)
	for i := 0; i < 20; i++ {
		env.say(t, "Ualice", "กลาง 1 "+long)
	}

	reply, err := env.d.Handle(context.Background(), Message{ConversationID: "G1", AuthorID: "Ualice", Text: "ดูรายการวันนี้"})
	require.NoError(t, err)
	assert.Len(t, reply.Texts, MaxChunks)
	assert.True(t, strings.HasSuffix(reply.Texts[MaxChunks-1], truncatedMarker))
}

func TestFormatWindow(t *testing.T) {
	assert.Equal(t, "2 นาที", formatWindow(2*time.Minute))
	assert.Equal(t, "90 วินาที", formatWindow(90*time.Second))
}
