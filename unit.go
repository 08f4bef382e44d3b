package hocon

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mikai233/hocon-go/hoconparser"
)

// Values carrying units stay plain strings in the resolved tree; the unit
// tables are only consulted here, on demand.

var durationUnits = map[string]time.Duration{
	"ns": time.Nanosecond, "nano": time.Nanosecond, "nanos": time.Nanosecond,
	"nanosecond": time.Nanosecond, "nanoseconds": time.Nanosecond,

	"us": time.Microsecond, "micro": time.Microsecond, "micros": time.Microsecond,
	"microsecond": time.Microsecond, "microseconds": time.Microsecond,

	"ms": time.Millisecond, "milli": time.Millisecond, "millis": time.Millisecond,
	"millisecond": time.Millisecond, "milliseconds": time.Millisecond,

	"s": time.Second, "second": time.Second, "seconds": time.Second,

	"m": time.Minute, "minute": time.Minute, "minutes": time.Minute,

	"h": time.Hour, "hour": time.Hour, "hours": time.Hour,

	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
}

var sizeUnits = map[string]decimal.Decimal{
	"": decimal.NewFromInt(1),
	"B": decimal.NewFromInt(1), "b": decimal.NewFromInt(1),
	"byte": decimal.NewFromInt(1), "bytes": decimal.NewFromInt(1),
}

func init() {
	powers := []struct {
		letter   string
		name     string
		exponent int
	}{
		{"K", "kilo", 1}, {"M", "mega", 2}, {"G", "giga", 3},
		{"T", "tera", 4}, {"P", "peta", 5}, {"E", "exa", 6},
	}
	binNames := map[string]string{
		"K": "kibi", "M": "mebi", "G": "gibi", "T": "tebi", "P": "pebi", "E": "exbi",
	}
	thousand := decimal.NewFromInt(1000)
	kibi := decimal.NewFromInt(1024)
	for _, p := range powers {
		dec := thousand.Pow(decimal.NewFromInt(int64(p.exponent)))
		bin := kibi.Pow(decimal.NewFromInt(int64(p.exponent)))
		lower := strings.ToLower(p.letter)
		sizeUnits[p.letter] = dec
		sizeUnits[lower] = dec
		sizeUnits[p.letter+"B"] = dec
		sizeUnits[lower+"B"] = dec
		sizeUnits[p.name+"byte"] = dec
		sizeUnits[p.name+"bytes"] = dec
		sizeUnits[p.letter+"i"] = bin
		sizeUnits[p.letter+"iB"] = bin
		sizeUnits[binNames[p.letter]+"byte"] = bin
		sizeUnits[binNames[p.letter]+"bytes"] = bin
	}
}

func invalidUnit(format string, args ...any) error {
	return hoconparser.Error{Kind: hoconparser.KindInvalidUnit,
		Message: fmt.Sprintf(format, args...)}
}

// splitUnit separates "30s" into "30" and "s". The unit suffix is the
// trailing run of letters; the number and the unit may be separated by
// whitespace.
func splitUnit(s string) (number, unit string, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", invalidUnit("empty literal")
	}
	i := len(s)
	for i > 0 {
		c := s[i-1]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			i--
			continue
		}
		break
	}
	number = strings.TrimSpace(s[:i])
	unit = s[i:]
	if number == "" {
		return "", "", invalidUnit("%q has no numeric part", s)
	}
	return number, unit, nil
}

// Duration parses a HOCON duration literal such as "30s", "500ms" or
// "1.5h". A bare number is taken as milliseconds.
func Duration(s string) (time.Duration, error) {
	number, unit, err := splitUnit(s)
	if err != nil {
		return 0, err
	}
	factor := time.Millisecond
	if unit != "" {
		var ok bool
		factor, ok = durationUnits[unit]
		if !ok {
			return 0, invalidUnit("unknown duration unit %q in %q", unit, s)
		}
	}
	value, err := decimal.NewFromString(number)
	if err != nil {
		return 0, invalidUnit("bad number in duration %q", s)
	}
	nanos := value.Mul(decimal.NewFromInt(int64(factor)))
	if !nanos.IsInteger() {
		nanos = nanos.Round(0)
	}
	if nanos.Cmp(decimal.NewFromInt(math.MaxInt64)) > 0 || nanos.Cmp(decimal.NewFromInt(math.MinInt64)) < 0 {
		return 0, invalidUnit("duration %q overflows", s)
	}
	return time.Duration(nanos.IntPart()), nil
}

// Size parses a HOCON size-in-bytes literal such as "1KB" (decimal, 1000)
// or "2MiB" (binary, 1024-based), up through E/Ei. A bare number is a byte
// count.
func Size(s string) (int64, error) {
	number, unit, err := splitUnit(s)
	if err != nil {
		return 0, err
	}
	factor, ok := sizeUnits[unit]
	if !ok {
		return 0, invalidUnit("unknown size unit %q in %q", unit, s)
	}
	value, err := decimal.NewFromString(number)
	if err != nil {
		return 0, invalidUnit("bad number in size %q", s)
	}
	bytes := value.Mul(factor)
	if !bytes.IsInteger() {
		bytes = bytes.Round(0)
	}
	if bytes.Cmp(decimal.NewFromInt(math.MaxInt64)) > 0 || bytes.Cmp(decimal.NewFromInt(math.MinInt64)) < 0 {
		return 0, invalidUnit("size %q overflows", s)
	}
	return bytes.IntPart(), nil
}

// GetDuration reads the string at path and parses it as a duration
// literal. The raw value stays a string; "timeout = 30s" is the string
// "30s" until read through here.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	raw, err := c.GetString(path)
	if err != nil {
		return 0, err
	}
	return Duration(raw)
}

// GetSize reads the string at path and parses it as a size-in-bytes
// literal.
func (c *Config) GetSize(path string) (int64, error) {
	raw, err := c.GetString(path)
	if err != nil {
		return 0, err
	}
	return Size(raw)
}
