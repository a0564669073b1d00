package lending

import (
	"errors"

	"github.com/sirupsen/logrus"

	"econsim/internal/market"
	"econsim/internal/money"
	"econsim/internal/temporal"
)

var (
	ErrInvalidConfig      = errors.New("invalid agent config")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInsufficientCredit = errors.New("insufficient credit")
)

// Model is the slice of the simulation the lending agents depend on: the
// shared calendar and currency, the loan option market, and the log sink.
type Model interface {
	Steps() int
	Calendar() *temporal.Calendar
	Currency() *money.Currency
	Logger() *logrus.Logger
	LoanMarket() *market.Market[*Lender, *LoanOption]
}
