// ABOUTME: Parser and formatter for week/day/hour/minute/second shorthand durations
// ABOUTME: Accepts strings like "1w2d3h4m5s" and fractional amounts like "1.5h"

// Package duration handles the human-typed duration shorthand used in settings
// and configuration files ("1w2d3h4m5s").
package duration

import (
	"cmp"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"
)

// ErrInvalid is returned for text that is not a duration shorthand.
var ErrInvalid = errors.New("invalid duration")

const (
	day  = 24 * time.Hour
	week = 7 * day
)

var units = map[rune]time.Duration{
	'w': week,
	'd': day,
	'h': time.Hour,
	'm': time.Minute,
	's': time.Second,
}

// Parse scans s left to right, collecting digits and '.' into a number until a
// unit letter is reached, then adds number*unit to the total. Amounts are
// summed exactly and the total is rounded to the nearest nanosecond.
func Parse(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalid)
	}

	total := new(big.Rat)
	var number strings.Builder
	for _, c := range strings.ToLower(s) {
		switch {
		case c >= '0' && c <= '9' || c == '.':
			number.WriteRune(c)
		case unicode.IsLetter(c):
			unit, ok := units[c]
			if !ok {
				return 0, fmt.Errorf("%w: unknown unit %q in %q, looking for formats like 1w2d3h4m5s", ErrInvalid, c, s)
			}
			if number.Len() == 0 {
				return 0, fmt.Errorf("%w: unit %q without a number in %q", ErrInvalid, c, s)
			}
			n, ok := parseAmount(number.String())
			if !ok {
				return 0, fmt.Errorf("%w: bad number %q in %q", ErrInvalid, number.String(), s)
			}
			total.Add(total, n.Mul(n, new(big.Rat).SetInt64(int64(unit))))
			number.Reset()
		default:
			return 0, fmt.Errorf("%w: %q does not represent a time delta, looking for formats like 1w2d3h4m5s", ErrInvalid, s)
		}
	}
	if number.Len() > 0 {
		return 0, fmt.Errorf("%w: trailing number %q without a unit in %q", ErrInvalid, number.String(), s)
	}

	ns := roundRat(total)
	if !ns.IsInt64() {
		return 0, fmt.Errorf("%w: %q overflows", ErrInvalid, s)
	}
	return time.Duration(ns.Int64()), nil
}

// parseAmount reads a non-negative decimal like "12", "1.5" or ".25".
func parseAmount(s string) (*big.Rat, bool) {
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" || strings.Contains(frac, ".") {
		return nil, false
	}
	return new(big.Rat).SetString(cmp.Or(whole, "0") + "." + cmp.Or(frac, "0"))
}

// roundRat rounds a non-negative rational half up.
func roundRat(r *big.Rat) *big.Int {
	q, rem := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if rem.Lsh(rem, 1).Cmp(r.Denom()) >= 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

// Format renders d as a number of seconds ("90s", "1.5s") with nanosecond
// precision. Parse accepts the output for every non-negative d.
func Format(d time.Duration) string {
	sign := ""
	mag := uint64(d)
	if d < 0 {
		sign, mag = "-", uint64(-(d + 1))+1
	}
	secs, nanos := mag/uint64(time.Second), mag%uint64(time.Second)
	if nanos == 0 {
		return fmt.Sprintf("%s%ds", sign, secs)
	}
	frac := strings.TrimRight(fmt.Sprintf("%09d", nanos), "0")
	return fmt.Sprintf("%s%d.%ss", sign, secs, frac)
}
