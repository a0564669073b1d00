package money

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSpec      = errors.New("invalid currency spec")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrDivisionByZero   = errors.New("division by zero")
)

const (
	SymbolPrefix = "prefix"
	SymbolSuffix = "suffix"
)

var codePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Spec describes a currency before it is instantiated. Optional fields
// (UnitPlural, FullName, SymbolPosition) are filled with defaults by
// NewCurrency.
type Spec struct {
	Code           string
	Symbol         string
	UnitName       string
	UnitPlural     string
	FullName       string
	Precision      int
	SymbolPosition string
}

// Currency is created once per simulation. Two credits are comparable only
// when they hold the same *Currency.
type Currency struct {
	spec      Spec
	tolerance decimal.Decimal
}

func NewCurrency(spec Spec) (*Currency, error) {
	if !codePattern.MatchString(spec.Code) {
		return nil, fmt.Errorf("%w: code %q must match [A-Z]{3}", ErrInvalidSpec, spec.Code)
	}
	if spec.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol must not be empty", ErrInvalidSpec)
	}
	if spec.UnitName == "" {
		return nil, fmt.Errorf("%w: unit name must not be empty", ErrInvalidSpec)
	}
	if spec.Precision < 0 {
		return nil, fmt.Errorf("%w: precision %d must be non-negative", ErrInvalidSpec, spec.Precision)
	}
	if spec.UnitPlural == "" {
		spec.UnitPlural = spec.UnitName + "s"
	}
	if spec.FullName == "" {
		spec.FullName = titleWords(spec.UnitName)
	}
	switch spec.SymbolPosition {
	case "":
		spec.SymbolPosition = SymbolPrefix
	case SymbolPrefix, SymbolSuffix:
	default:
		return nil, fmt.Errorf("%w: symbol position %q must be %q or %q",
			ErrInvalidSpec, spec.SymbolPosition, SymbolPrefix, SymbolSuffix)
	}
	return &Currency{
		spec:      spec,
		tolerance: decimal.New(1, -int32(spec.Precision)),
	}, nil
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func (c *Currency) Code() string           { return c.spec.Code }
func (c *Currency) Symbol() string         { return c.spec.Symbol }
func (c *Currency) UnitName() string       { return c.spec.UnitName }
func (c *Currency) UnitPlural() string     { return c.spec.UnitPlural }
func (c *Currency) FullName() string       { return c.spec.FullName }
func (c *Currency) Precision() int         { return c.spec.Precision }
func (c *Currency) SymbolPosition() string { return c.spec.SymbolPosition }

// Tolerance is the smallest distinguishable amount, 10^-precision.
func (c *Currency) Tolerance() decimal.Decimal { return c.tolerance }

func (c *Currency) Zero() Credit {
	return Credit{currency: c}
}

func (c *Currency) FromInt(n int64) Credit {
	return Credit{amount: decimal.NewFromInt(n), currency: c}
}

func (c *Currency) FromFloat(f float64) Credit {
	return Credit{amount: decimal.NewFromFloat(f), currency: c}
}

func (c *Currency) FromDecimal(d decimal.Decimal) Credit {
	return Credit{amount: d, currency: c}
}

func (c *Currency) FromString(s string) (Credit, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Credit{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Credit{amount: d, currency: c}, nil
}

// Credit is an amount of a specific currency. The zero value carries no
// currency and cannot take part in arithmetic.
type Credit struct {
	amount   decimal.Decimal
	currency *Currency
}

func (a Credit) Amount() decimal.Decimal { return a.amount }
func (a Credit) Currency() *Currency     { return a.currency }

func (a Credit) sameCurrency(b Credit) error {
	if a.currency == nil || a.currency != b.currency {
		return ErrCurrencyMismatch
	}
	return nil
}

func (a Credit) Add(b Credit) (Credit, error) {
	if err := a.sameCurrency(b); err != nil {
		return Credit{}, err
	}
	return Credit{amount: a.amount.Add(b.amount), currency: a.currency}, nil
}

func (a Credit) Sub(b Credit) (Credit, error) {
	if err := a.sameCurrency(b); err != nil {
		return Credit{}, err
	}
	return Credit{amount: a.amount.Sub(b.amount), currency: a.currency}, nil
}

func (a Credit) Mod(b Credit) (Credit, error) {
	if err := a.sameCurrency(b); err != nil {
		return Credit{}, err
	}
	if b.amount.IsZero() {
		return Credit{}, ErrDivisionByZero
	}
	return Credit{amount: a.amount.Mod(b.amount), currency: a.currency}, nil
}

// Div divides one credit by another, yielding a dimensionless ratio.
func (a Credit) Div(b Credit) (decimal.Decimal, error) {
	if err := a.sameCurrency(b); err != nil {
		return decimal.Decimal{}, err
	}
	if b.amount.IsZero() {
		return decimal.Decimal{}, ErrDivisionByZero
	}
	return a.amount.Div(b.amount), nil
}

// DivMod returns the integer quotient of a/b and the credit remainder.
func (a Credit) DivMod(b Credit) (decimal.Decimal, Credit, error) {
	if err := a.sameCurrency(b); err != nil {
		return decimal.Decimal{}, Credit{}, err
	}
	if b.amount.IsZero() {
		return decimal.Decimal{}, Credit{}, ErrDivisionByZero
	}
	q, r := a.amount.QuoRem(b.amount, 0)
	return q, Credit{amount: r, currency: a.currency}, nil
}

func (a Credit) MulDecimal(d decimal.Decimal) Credit {
	return Credit{amount: a.amount.Mul(d), currency: a.currency}
}

func (a Credit) MulFloat(f float64) Credit {
	return a.MulDecimal(decimal.NewFromFloat(f))
}

func (a Credit) MulInt(n int64) Credit {
	return a.MulDecimal(decimal.NewFromInt(n))
}

func (a Credit) DivScalar(d decimal.Decimal) (Credit, error) {
	if d.IsZero() {
		return Credit{}, ErrDivisionByZero
	}
	return Credit{amount: a.amount.Div(d), currency: a.currency}, nil
}

func (a Credit) Neg() Credit {
	return Credit{amount: a.amount.Neg(), currency: a.currency}
}

func (a Credit) Abs() Credit {
	return Credit{amount: a.amount.Abs(), currency: a.currency}
}

func (a Credit) withinTolerance(d decimal.Decimal) bool {
	if a.currency == nil {
		return d.IsZero()
	}
	return d.Abs().LessThan(a.currency.tolerance)
}

func (a Credit) IsZero() bool {
	return a.withinTolerance(a.amount)
}

func (a Credit) IsPositive() bool {
	return !a.IsZero() && a.amount.IsPositive()
}

func (a Credit) IsNegative() bool {
	return !a.IsZero() && a.amount.IsNegative()
}

func (a Credit) IsPositiveOrZero() bool { return !a.IsNegative() }
func (a Credit) IsNegativeOrZero() bool { return !a.IsPositive() }

// Cmp orders two credits of the same currency: -1, 0 or 1, where amounts
// closer than the currency tolerance compare equal.
func (a Credit) Cmp(b Credit) (int, error) {
	if err := a.sameCurrency(b); err != nil {
		return 0, err
	}
	diff := a.amount.Sub(b.amount)
	if a.withinTolerance(diff) {
		return 0, nil
	}
	return diff.Sign(), nil
}

func (a Credit) Equal(b Credit) bool {
	c, err := a.Cmp(b)
	return err == nil && c == 0
}

func (a Credit) Less(b Credit) bool {
	c, err := a.Cmp(b)
	return err == nil && c < 0
}

func (a Credit) LessOrEqual(b Credit) bool {
	c, err := a.Cmp(b)
	return err == nil && c <= 0
}

func (a Credit) Greater(b Credit) bool {
	c, err := a.Cmp(b)
	return err == nil && c > 0
}

func (a Credit) GreaterOrEqual(b Credit) bool {
	c, err := a.Cmp(b)
	return err == nil && c >= 0
}

// Format renders the amount with the currency symbol, e.g. "$12.50" or
// "12.50 kr" depending on the symbol position.
func (a Credit) Format() string {
	if a.currency == nil {
		return a.amount.String()
	}
	s := a.amount.StringFixed(int32(a.currency.spec.Precision))
	if a.currency.spec.SymbolPosition == SymbolSuffix {
		return s + a.currency.spec.Symbol
	}
	return a.currency.spec.Symbol + s
}

// FormatUnits renders the amount with the unit name, singular only when the
// amount is within tolerance of one.
func (a Credit) FormatUnits() string {
	if a.currency == nil {
		return a.amount.String()
	}
	unit := a.currency.spec.UnitPlural
	if a.withinTolerance(a.amount.Sub(decimal.NewFromInt(1))) {
		unit = a.currency.spec.UnitName
	}
	return a.amount.String() + " " + unit
}

func (a Credit) String() string { return a.Format() }
