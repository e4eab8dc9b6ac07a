// Package invoicing holds the pure rules for invoice numbers and amounts.
package invoicing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const numberPrefix = "FACT"

// PeriodKey returns the YYYYMM period an invoice issued at t belongs to
func PeriodKey(t time.Time) string {
	return t.Format("200601")
}

// Prefix returns the number prefix shared by every invoice in period
func Prefix(period string) string {
	return numberPrefix + "-" + period + "-"
}

// FormatNumber renders FACT-YYYYMM-NNNN. Sequences above 9999 keep all digits.
func FormatNumber(period string, seq int) string {
	return fmt.Sprintf("%s%04d", Prefix(period), seq)
}

// ParseSequence extracts the numeric sequence from an invoice number
func ParseSequence(number string) (int, error) {
	idx := strings.LastIndex(number, "-")
	if idx < 0 || idx == len(number)-1 {
		return 0, fmt.Errorf("invoice number %q has no sequence", number)
	}
	seq, err := strconv.Atoi(number[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("invoice number %q: %w", number, err)
	}
	return seq, nil
}

// NextSequence returns one past the highest sequence among the numbers that
// belong to period, or 1 when there are none. Values are compared
// numerically so FACT-…-10000 sorts after FACT-…-9999.
func NextSequence(numbers []string, period string) int {
	prefix := Prefix(period)
	highest := 0
	for _, n := range numbers {
		if !strings.HasPrefix(n, prefix) {
			continue
		}
		seq, err := ParseSequence(n)
		if err != nil {
			continue
		}
		if seq > highest {
			highest = seq
		}
	}
	return highest + 1
}
