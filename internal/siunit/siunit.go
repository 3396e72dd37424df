// Package siunit converts between suffixed display quantities such as
// "12.5M" or "3,400" and plain numbers, and rolls broker lot columns up into
// totals.
package siunit

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"broksum/internal/types"
)

type unit struct {
	scale  decimal.Decimal
	value  float64
	symbol string
}

// units is ordered by ascending scale.
var units = []unit{
	{decimal.New(1, 3), 1e3, "k"},
	{decimal.New(1, 6), 1e6, "M"},
	{decimal.New(1, 9), 1e9, "B"},
	{decimal.New(1, 12), 1e12, "T"},
	{decimal.New(1, 15), 1e15, "P"},
	{decimal.New(1, 18), 1e18, "E"},
}

var errOutOfRange = errors.New("value out of float64 range")

var trailingZeros = regexp.MustCompile(`\.0+$|(\.[0-9]*[1-9])0+$`)

// UnknownUnitError is returned when a quantity carries a suffix letter
// outside k, M, B, T, P, E.
type UnknownUnitError struct {
	Input  string
	Symbol string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown unit %q in %q", e.Symbol, e.Input)
}

// InvalidNumberError is returned when the numeric part of a quantity is not
// a number.
type InvalidNumberError struct {
	Input string
	Err   error
}

func (e *InvalidNumberError) Error() string {
	return fmt.Sprintf("invalid number %q: %v", e.Input, e.Err)
}

func (e *InvalidNumberError) Unwrap() error { return e.Err }

// Scale returns the multiplier for a unit symbol.
func Scale(symbol string) (float64, bool) {
	u, ok := lookup(symbol)
	return u.value, ok
}

func lookup(symbol string) (unit, bool) {
	for _, u := range units {
		if u.symbol == symbol {
			return u, true
		}
	}
	return unit{}, false
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// ParseDecimal parses s exactly. Whitespace and commas are dropped, the
// first letter selects the unit and the remaining digits are scaled by it.
// An empty numeral is zero.
func ParseDecimal(s string) (decimal.Decimal, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ',' {
			return -1
		}
		return r
	}, s)

	scale := decimal.NewFromInt(1)
	if i := strings.IndexFunc(clean, isASCIILetter); i >= 0 {
		symbol := clean[i : i+1]
		u, ok := lookup(symbol)
		if !ok {
			return decimal.Zero, &UnknownUnitError{Input: s, Symbol: symbol}
		}
		scale = u.scale
	}

	digits := strings.Map(func(r rune) rune {
		if isASCIILetter(r) {
			return -1
		}
		return r
	}, clean)
	if digits == "" {
		return decimal.Zero, nil
	}

	n, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, &InvalidNumberError{Input: s, Err: err}
	}
	return n.Mul(scale), nil
}

// Parse is ParseDecimal returning a float64.
func Parse(s string) (float64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return 0, &InvalidNumberError{Input: s, Err: errOutOfRange}
	}
	return f, nil
}

// Total sums the normalized lot column of a ranked side.
func Total(side types.RankedSide) (float64, error) {
	sum := decimal.Zero
	for i, row := range side {
		d, err := ParseDecimal(row.Lot)
		if err != nil {
			return 0, fmt.Errorf("rank %d lot: %w", i+1, err)
		}
		sum = sum.Add(d)
	}
	f := sum.InexactFloat64()
	if math.IsInf(f, 0) {
		return 0, &InvalidNumberError{Input: sum.String(), Err: errOutOfRange}
	}
	return f, nil
}

// Format renders v with the largest unit not exceeding it (k when v is
// below 1000), rounded to digits decimals with trailing zeros removed.
//
// Rounding works on the exact binary value of v divided by the unit, half
// up, so Format(1005, 2) is "1k" (1.005 is stored as 1.00499...).
func Format(v float64, digits int) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	i := len(units) - 1
	for ; i > 0; i-- {
		if v >= units[i].value {
			break
		}
	}
	q := v / units[i].value
	exact, err := decimal.NewFromString(new(big.Float).SetFloat64(q).Text('f', 1100))
	if err != nil {
		exact = decimal.NewFromFloat(q)
	}
	fixed := exact.StringFixed(int32(digits))
	return trailingZeros.ReplaceAllString(fixed, "$1") + units[i].symbol
}

// Aggregate totals a side and formats it with two decimals.
func Aggregate(side types.RankedSide) (types.LotTotal, error) {
	v, err := Total(side)
	if err != nil {
		return types.LotTotal{}, err
	}
	return types.LotTotal{Value: v, Formatted: Format(v, 2)}, nil
}
