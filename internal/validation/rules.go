package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/vvka-141/bookshelf/internal/catalog"
)

// Maximum field lengths in characters.
const (
	MaxTitleLen          = 200
	MaxSubtitleLen       = 200
	MaxPublisherLen      = 100
	MaxMaturityRatingLen = 30
	MaxLanguageLen       = 5
	MaxAuthorLen         = 60
	MaxCategoryLen       = 60
	MaxIdentifierTypeLen = 8
	MaxIdentifierLen     = 40
	MaxCountryLen        = 5
	MaxSaleabilityLen    = 20
	MaxViewabilityLen    = 20
	MaxTextToSpeechLen   = 30
)

// Bounds of the stored numeric columns. Amounts are kept with two decimal
// places and must round below maxAmount.
const (
	maxAmount = 1e6
	amountTie = maxAmount - 0.005
)

var decimalPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// checker accumulates issues while a single item is walked.
type checker struct {
	issues []Issue
}

func (c *checker) fail(msg string, loc []string) {
	c.issues = append(c.issues, Issue{Loc: append([]string(nil), loc...), Msg: msg})
}

func at(loc []string, key string) []string {
	out := make([]string, len(loc), len(loc)+1)
	copy(out, loc)
	return append(out, key)
}

// present returns the value stored under key. JSON null counts as absent.
func present(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (c *checker) object(v any, loc []string) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		c.fail(msgObject, loc)
	}
	return m, ok
}

func (c *checker) requiredObject(m map[string]any, key string, loc []string) (map[string]any, bool) {
	v, ok := present(m, key)
	if !ok {
		c.fail(msgRequired, at(loc, key))
		return nil, false
	}
	return c.object(v, at(loc, key))
}

func (c *checker) optionalObject(m map[string]any, key string, loc []string) (map[string]any, bool) {
	v, ok := present(m, key)
	if !ok {
		return nil, false
	}
	return c.object(v, at(loc, key))
}

func (c *checker) str(v any, maxLen int, loc []string) (string, bool) {
	s, ok := v.(string)
	if !ok {
		c.fail(msgString, loc)
		return "", false
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		c.fail(fmt.Sprintf("String should have at most %d characters", maxLen), loc)
		return "", false
	}
	return s, true
}

func (c *checker) requiredString(m map[string]any, key string, maxLen int, loc []string) string {
	v, ok := present(m, key)
	if !ok {
		c.fail(msgRequired, at(loc, key))
		return ""
	}
	s, _ := c.str(v, maxLen, at(loc, key))
	return s
}

func (c *checker) optionalString(m map[string]any, key string, maxLen int, loc []string) *string {
	v, ok := present(m, key)
	if !ok {
		return nil
	}
	s, ok := c.str(v, maxLen, at(loc, key))
	if !ok {
		return nil
	}
	return &s
}

func (c *checker) stringList(m map[string]any, key string, maxLen int, loc []string) []string {
	v, ok := present(m, key)
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		c.fail(msgList, at(loc, key))
		return nil
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := c.str(item, maxLen, at(at(loc, key), strconv.Itoa(i)))
		if ok {
			out = append(out, s)
		}
	}
	return out
}

func (c *checker) requiredBool(m map[string]any, key string, loc []string) bool {
	v, ok := present(m, key)
	if !ok {
		c.fail(msgRequired, at(loc, key))
		return false
	}
	b, ok := v.(bool)
	if !ok {
		c.fail(msgBool, at(loc, key))
	}
	return b
}

func (c *checker) optionalInt(m map[string]any, key string, loc []string) *int64 {
	v, ok := present(m, key)
	if !ok {
		return nil
	}
	n, ok := toInt(v)
	if !ok {
		c.fail(msgInt, at(loc, key))
		return nil
	}
	switch {
	case n > math.MaxInt32:
		c.fail(msgIntMax, at(loc, key))
		return nil
	case n < math.MinInt32:
		c.fail(msgIntMin, at(loc, key))
		return nil
	}
	return &n
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(n)
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func (c *checker) optionalFloat(m map[string]any, key string, loc []string) *float64 {
	v, ok := present(m, key)
	if !ok {
		return nil
	}
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			c.fail(msgNumber, at(loc, key))
			return nil
		}
		f = parsed
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		c.fail(msgNumber, at(loc, key))
		return nil
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		c.fail(msgNumber, at(loc, key))
		return nil
	}
	return &f
}

// decimal accepts a JSON number, or a string holding one, and keeps its text.
func (c *checker) decimal(m map[string]any, key string, loc []string) json.Number {
	v, ok := present(m, key)
	if !ok {
		c.fail(msgRequired, at(loc, key))
		return ""
	}
	var text string
	switch n := v.(type) {
	case json.Number:
		text = n.String()
	case string:
		text = n
	case float64:
		text = strconv.FormatFloat(n, 'f', -1, 64)
	case int:
		text = strconv.Itoa(n)
	case int64:
		text = strconv.FormatInt(n, 10)
	default:
		c.fail(msgDecimal, at(loc, key))
		return ""
	}
	if !decimalPattern.MatchString(text) {
		c.fail(msgDecimal, at(loc, key))
		return ""
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.Abs(f) >= amountTie {
		c.fail(msgAmountSize, at(loc, key))
		return ""
	}
	return json.Number(text)
}

// publishedDate completes YYYY and YYYY-MM with "-01" before parsing.
func (c *checker) publishedDate(m map[string]any, key string, loc []string) *catalog.Date {
	v, ok := present(m, key)
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		c.fail(msgDate, at(loc, key))
		return nil
	}
	d, err := catalog.ParseDate(CompleteDate(s))
	if err != nil {
		c.fail(msgDateFormat, at(loc, key))
		return nil
	}
	return &d
}

// CompleteDate pads a year-only or year-month date to a full date.
func CompleteDate(s string) string {
	if len(s) == 4 {
		s += "-01"
	}
	if len(s) == 7 {
		s += "-01"
	}
	return s
}
