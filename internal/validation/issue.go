package validation

import (
	"strings"

	"github.com/vvka-141/bookshelf/internal/catalog"
)

// Issue is one field-level rejection reason.
type Issue struct {
	// Loc is the path of the offending field, e.g. ["volumeInfo", "authors", "0"].
	Loc []string
	Msg string
}

// Path returns Loc joined with dots.
func (i Issue) Path() string {
	return strings.Join(i.Loc, ".")
}

func (i Issue) String() string {
	if len(i.Loc) == 0 {
		return i.Msg
	}
	return i.Path() + ": " + i.Msg
}

// Result is the outcome of validating one raw item. Exactly one of Volume
// and Issues is set.
type Result struct {
	Volume *catalog.Volume
	Issues []Issue
}

// Valid reports whether the item was accepted.
func (r Result) Valid() bool {
	return r.Volume != nil
}

const (
	msgRequired   = "Field required"
	msgString     = "Input should be a valid string"
	msgBool       = "Input should be a valid boolean"
	msgInt        = "Input should be a valid integer"
	msgNumber     = "Input should be a valid number"
	msgDecimal    = "Input should be a valid decimal"
	msgDate       = "Input should be a valid date"
	msgDateFormat = "Input should be a valid date in the format YYYY-MM-DD"
	msgList       = "Input should be a valid list"
	msgObject     = "Input should be a valid dictionary"
	msgEmpty      = "String should have at least 1 character"
	msgIntMax     = "Input should be less than or equal to 2147483647"
	msgIntMin     = "Input should be greater than or equal to -2147483648"
	msgAmountSize = "Decimal input should have no more than 6 digits before the decimal point"
)
