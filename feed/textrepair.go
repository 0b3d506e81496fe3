package feed

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// The full-format feeds are served as Windows-1257 but are frequently read
// as Latin-1 somewhere upstream, which renders Lithuanian letters as the
// Latin-1 characters sharing the same byte value. The table below undoes
// that, in order, each substitution applied globally.
var repairTable = []struct {
	broken string
	fixed  string
}{
	{"À", "Ą"}, // 0xC0
	{"È", "Č"}, // 0xC8
	{"Æ", "Ę"}, // 0xC6
	{"Ë", "Ė"}, // 0xCB
	{"Á", "Į"}, // 0xC1
	{"Ð", "Š"}, // 0xD0
	{"Ø", "Ų"}, // 0xD8
	{"Û", "Ū"}, // 0xDB
	{"Þ", "Ž"}, // 0xDE
	{"à", "ą"}, // 0xE0
	{"è", "č"}, // 0xE8
	{"æ", "ę"}, // 0xE6
	{"ë", "ė"}, // 0xEB
	{"á", "į"}, // 0xE1
	{"ð", "š"}, // 0xF0
	{"ø", "ų"}, // 0xF8
	{"û", "ū"}, // 0xFB
	{"þ", "ž"}, // 0xFE
}

// RepairText repairs mojibake in a text field. The substitution table runs
// first; if the result still carries a replacement character or a raw C1
// byte, the heuristic's premise was wrong and the original bytes are
// re-decoded with the Windows-1257 table instead. The fallback replaces the
// table output entirely.
func RepairText(s string) string {
	repaired := s
	for _, sub := range repairTable {
		repaired = strings.ReplaceAll(repaired, sub.broken, sub.fixed)
	}
	if !needsCodePageFallback(repaired) {
		return repaired
	}
	decoded, err := charmap.Windows1257.NewDecoder().String(s)
	if err != nil {
		return repaired
	}
	return decoded
}

func needsCodePageFallback(s string) bool {
	for _, r := range s {
		if r == '�' || (r >= 0x80 && r <= 0x9F) {
			return true
		}
	}
	return false
}
