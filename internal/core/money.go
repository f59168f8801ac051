// Package core provides amount and date parsing and formatting utilities.
//
// Amounts are whole rupiah. Input may carry a "Rp" prefix and dot, comma or
// space thousands separators; fractional parts are rejected.
package core

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// ParseAmount converts user input such as "2.500.000" or "Rp 2,500,000" to a
// positive whole amount.
//
// Examples:
//   ParseAmount("2500000")      -> 2500000, nil
//   ParseAmount("2.500.000")    -> 2500000, nil
//   ParseAmount("Rp 15.000")    -> 15000, nil
//   ParseAmount("0")            -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}

	var digits strings.Builder
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		case r == '.' || r == ',' || r == ' ':
			// Separators must sit between digit groups of three.
			rest := s[i+1:]
			if i == 0 || len(rest) < 3 || !allDigits(rest[:3]) || (len(rest) > 3 && allDigits(rest[3:4])) {
				return 0, ErrInvalidAmount
			}
		default:
			return 0, ErrInvalidAmount
		}
	}

	v, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// FormatAmount groups digits the Indonesian way: 2500000 -> "2.500.000".
func FormatAmount(amount int64) string {
	return idPrinter.Sprintf("%d", amount)
}

// FormatRupiah renders an amount as currency: "Rp 2.500.000".
func FormatRupiah(amount int64) string {
	return "Rp " + FormatAmount(amount)
}

var (
	idWeekdays = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}
	idMonths   = [...]string{"Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli",
		"Agustus", "September", "Oktober", "November", "Desember"}
)

// FormatDueDateLong renders t as "Senin, 19 Oktober 2026" in t's location.
func FormatDueDateLong(t time.Time) string {
	return idWeekdays[t.Weekday()] + ", " + strconv.Itoa(t.Day()) + " " +
		idMonths[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// FormatDueDateShort renders t as "19/10/2026" in t's location.
func FormatDueDateShort(t time.Time) string {
	return strconv.Itoa(t.Day()) + "/" + strconv.Itoa(int(t.Month())) + "/" + strconv.Itoa(t.Year())
}

// ParseDueDate accepts RFC 3339 timestamps or plain "2006-01-02" dates; the
// latter are read as midnight in loc.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDueDate
}
