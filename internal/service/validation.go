package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"blogapi/internal/domain"
)

var validate = validator.New()

// recordID is an id taken from a path or header. A numeric id that is not
// an integer is valid input that matches no record.
type recordID struct {
	value    int64
	integral bool
}

// parseID fails with msg when raw is empty or not a number.
func parseID(raw string, msg string) (recordID, error) {
	if raw == "" {
		return recordID{}, domain.InvalidInput(msg)
	}
	f, ok := parseNumber(raw)
	if !ok {
		return recordID{}, domain.InvalidInput(msg)
	}
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return recordID{}, nil
	}
	return recordID{value: int64(f), integral: true}, nil
}

var decimalLiteral = regexp.MustCompile(`^[+-]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// parseNumber reads a query or header value the way browsers coerce
// strings to numbers: surrounding whitespace is ignored, a blank string is
// 0, Infinity is spelled out and 0x/0o/0b prefixes take unsigned integers.
// Go-only spellings such as "inf", "NaN", hex floats and underscores are
// rejected.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})

	switch s {
	case "":
		return 0, true
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}

	if len(s) > 2 && s[0] == '0' {
		if base := radix(s[1]); base != 0 {
			digits := s[2:]
			if strings.ContainsAny(digits, "+-_") {
				return 0, false
			}
			n, ok := new(big.Int).SetString(digits, base)
			if !ok {
				return 0, false
			}
			f, _ := new(big.Float).SetInt(n).Float64()
			return f, true
		}
	}

	if !decimalLiteral.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

func radix(prefix byte) int {
	switch prefix {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	}
	return 0
}

// decodeValue decodes one JSON value keeping numbers as json.Number.
func decodeValue(raw json.RawMessage) (interface{}, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// isFalsy reports whether a body field counts as not filled in: absent,
// null, "", false or 0.
func isFalsy(body map[string]json.RawMessage, key string) bool {
	raw, ok := body[key]
	if !ok {
		return true
	}

	v, ok := decodeValue(raw)
	if !ok {
		return true
	}

	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	default:
		return false
	}
}

func decodeString(raw json.RawMessage) (string, bool) {
	v, ok := decodeValue(raw)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func decodeBool(raw json.RawMessage) (bool, bool) {
	v, ok := decodeValue(raw)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// decodeInt accepts JSON numbers with no fractional part, so 3 and 3.0 are
// both 3 while 3.5 and "3" are rejected.
func decodeInt(raw json.RawMessage) (int64, bool) {
	v, ok := decodeValue(raw)
	if !ok {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}

	if i, err := n.Int64(); err == nil {
		return i, true
	}

	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// displayValue renders a body value for client messages: strings without
// quotes, numbers in their shortest form, anything else as sent.
func displayValue(raw json.RawMessage) string {
	v, ok := decodeValue(raw)
	if !ok {
		return string(bytes.TrimSpace(raw))
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return t.String()
	default:
		return string(bytes.TrimSpace(raw))
	}
}

// hasMinLength counts characters, not bytes.
func hasMinLength(s string, min int) bool {
	return validate.Var(s, fmt.Sprintf("min=%d", min)) == nil
}

func isValidRole(role string) bool {
	return validate.Var(role, "oneof=admin user") == nil
}

func isValidAge(age int64) bool {
	return validate.Var(age, "gte=0,lte=2147483647") == nil
}
