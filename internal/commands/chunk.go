package commands

import (
	"strings"
	"unicode/utf8"
)

// Message size budgets per platform, in characters.
const (
	LineMessageLimit    = 5000
	DiscordMessageLimit = 2000
	MaxChunks           = 5
)

const truncatedMarker = "\n…(ตัดข้อความที่เหลือ)"

// Chunk packs lines into messages of at most limit characters, splitting
// only between lines unless a single line is longer than limit. At most
// maxParts messages are returned; when the text does not fit, the last
// message ends with a truncation marker.
func Chunk(lines []string, limit, maxParts int) []string {
	if limit <= 0 || maxParts <= 0 {
		return nil
	}

	var parts []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if curLen > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range lines {
		for _, piece := range splitRunes(line, limit) {
			n := utf8.RuneCountInString(piece)
			sep := 0
			if curLen > 0 {
				sep = 1
			}
			if curLen+sep+n > limit {
				flush()
				sep = 0
			}
			if sep == 1 {
				cur.WriteByte('\n')
			}
			cur.WriteString(piece)
			curLen += sep + n
		}
	}
	flush()

	if len(parts) <= maxParts {
		return parts
	}
	parts = parts[:maxParts]
	last := parts[maxParts-1]
	markerLen := utf8.RuneCountInString(truncatedMarker)
	if keep := limit - markerLen; utf8.RuneCountInString(last) > keep {
		last = string([]rune(last)[:max(keep, 0)])
	}
	parts[maxParts-1] = last + truncatedMarker
	return parts
}

// splitRunes cuts s into pieces of at most limit runes. An empty line stays
// a single empty piece so blank lines survive.
func splitRunes(s string, limit int) []string {
	if utf8.RuneCountInString(s) <= limit {
		return []string{s}
	}
	var out []string
	r := []rune(s)
	for len(r) > limit {
		out = append(out, string(r[:limit]))
		r = r[limit:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}
