package chapter

import (
	"strconv"
	"strings"
)

// The numeral set that appears in chapter headings: digits plus the three
// positional multipliers. 两 shows up in some editions in place of 二.
var cnumDigits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

var cnumUnits = map[rune]int{
	'十': 10, '百': 100, '千': 1000,
}

// DecodeNumeral converts an Arabic or Chinese numeral token to an integer.
// Multipliers apply to the preceding digit, defaulting to 1 when a unit opens
// the token (十二 = 12). Unknown runes contribute zero.
func DecodeNumeral(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}

	total := 0
	num := 0
	for _, r := range s {
		if u, ok := cnumUnits[r]; ok {
			if num == 0 {
				num = 1
			}
			total += num * u
			num = 0
			continue
		}
		if r >= '0' && r <= '9' {
			num = num*10 + int(r-'0')
			continue
		}
		num = cnumDigits[r]
	}
	return total + num
}
