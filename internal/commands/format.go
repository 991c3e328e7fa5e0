package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/susu3304/kongklang/internal/ledger"
	"github.com/susu3304/kongklang/internal/names"
)

const (
	emptyText       = "ยังไม่มีรายการ"
	systemErrorText = "ระบบขัดข้อง กรุณาลองใหม่อีกครั้ง"
)

var helpText = strings.Join([]string{
	`ตัวอย่าง: "กลาง100 ค่าน้ำ", "ส่วนตัว120 กาแฟ", "สรุปวันนี้", "สรุปย้อนหลัง3วัน", "ดูรายการล่าสุด", "ลบ #123", "รีเซ็ตเดือนนี้", "backup"`,
	`สรุป: "สรุป 2025-01-31", "สรุปเดือน 2025-01", "สรุปเดือนนี้", "สรุปทั้งหมด"`,
	`ดูรายการ: "ดูรายการวันนี้", "ดูรายการ 2025-01-31", "ดูรายการเดือน 2025-01", "ดูรายการล่าสุด 10"`,
	`ลบ: พิมพ์ "ลบ #123" แล้วตามด้วย "ยืนยัน123"`,
}, "\n")

func notFoundText(id int64) string {
	return fmt.Sprintf("ไม่พบรายการ #%d", id)
}

func accountLabel(k ledger.Kind) string {
	if k == ledger.KindCenter {
		return "บัญชีกลาง"
	}
	return "ส่วนตัวออกก่อน"
}

func noteOrDash(note string) string {
	if note == "" {
		return "-"
	}
	return note
}

func formatWindow(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		return fmt.Sprintf("%d นาที", int(d/time.Minute))
	}
	return fmt.Sprintf("%d วินาที", int(d.Round(time.Second)/time.Second))
}

// formatSummary renders totals and who owes whom. Two payers or fewer get the
// split-the-difference line; three or more get the fair-split transfers.
func (d *Dispatcher) formatSummary(ctx context.Context, src names.Source, scope ledger.Scope, s ledger.Summary) string {
	name := func(id string) string { return d.names.Resolve(ctx, src, id) }

	lines := []string{
		fmt.Sprintf("สรุป (%s):", scope.Label()),
		fmt.Sprintf("- กลางรวม: %d", s.CenterTotal),
	}

	if len(s.Advances) <= 2 {
		p := ledger.SettlePair(s)
		nameA, nameB := "A", "B"
		if p.A != "" {
			nameA = name(p.A)
		}
		if p.B != "" {
			nameB = name(p.B)
		}
		var clear string
		switch p.Settle.Sign() {
		case 1:
			clear = fmt.Sprintf("%s ต้องคืน %s = %s", nameB, nameA, p.Owed())
		case -1:
			clear = fmt.Sprintf("%s ต้องคืน %s = %s", nameA, nameB, p.Owed())
		default:
			clear = "ไม่ต้องคืนกัน"
		}
		lines = append(lines,
			fmt.Sprintf("- ออกก่อนของ %s: %d", nameA, p.AdvanceA),
			fmt.Sprintf("- ออกก่อนของ %s: %d", nameB, p.AdvanceB),
			"- เคลียร์กัน: "+clear,
		)
	} else {
		lines = append(lines,
			fmt.Sprintf("- ออกก่อนรวม: %d", s.AdvanceTotal),
			fmt.Sprintf("- เคลียร์กัน (หารเท่ากัน %d คน):", len(s.Advances)),
		)
		transfers := ledger.SettleAll(s)
		if len(transfers) == 0 {
			lines = append(lines, "  ไม่ต้องคืนกัน")
		}
		for _, t := range transfers {
			lines = append(lines, fmt.Sprintf("  %s ต้องคืน %s = %s", name(t.From), name(t.To), t.Amount))
		}
	}

	if len(s.Advances) > 0 {
		lines = append(lines, "รายการออกก่อนรวม:")
		for _, a := range s.Advances {
			lines = append(lines, fmt.Sprintf("• %s: %d", name(a.AuthorID), a.Amount))
		}
	}
	return strings.Join(lines, "\n")
}
