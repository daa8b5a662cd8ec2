package google

import (
	"fmt"
	"regexp"
	"strconv"
)

var refPattern = regexp.MustCompile(`^(.+)!A(\d+):([A-Z]+)(\d+)$`)

// parseRef splits "<sheet>!A<row>:<col><row>" into sheet and row number.
func parseRef(ref string) (string, int, bool) {
	m := refPattern.FindStringSubmatch(ref)
	if m == nil || m[2] != m[4] {
		return "", 0, false
	}
	row, err := strconv.Atoi(m[2])
	if err != nil || row < 1 {
		return "", 0, false
	}
	return m[1], row, true
}

// columnLetter converts a 1-based column index to its A1 letter(s).
func columnLetter(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}

func rowRange(sheet string, row, columns int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, columnLetter(columns), row)
}
