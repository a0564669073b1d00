package lending

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"econsim/internal/money"
	"econsim/internal/temporal"
)

// LoanOptionConfig describes one loan product a lender lists on the market.
// Windows and term are in calendar days; the interest rate is simple
// interest per day.
type LoanOptionConfig struct {
	Name                   string
	TermDays               int
	DisbursementWindowDays int
	PaymentWindowDays      int
	MinPrincipal           *money.Credit
	MaxPrincipal           *money.Credit
	MinInterestRate        float64
	MaxInterestRate        float64
}

// LoanOption is a loan product on offer. Borrowers discover options through
// the market and apply against them; the option clamps the requested
// principal into its bounds and opens the application at its minimum rate.
type LoanOption struct {
	lender             *Lender
	name               string
	term               temporal.Duration
	disbursementWindow temporal.Duration
	paymentWindow      temporal.Duration
	minPrincipal       *money.Credit
	maxPrincipal       *money.Credit
	minInterestRate    float64
	maxInterestRate    float64
}

func newLoanOption(lender *Lender, cfg LoanOptionConfig) (*LoanOption, error) {
	if cfg.TermDays <= 0 {
		return nil, fmt.Errorf("%w: term %d days must be positive", ErrInvalidConfig, cfg.TermDays)
	}
	if cfg.DisbursementWindowDays < 0 || cfg.PaymentWindowDays < 0 {
		return nil, fmt.Errorf("%w: windows must be non-negative", ErrInvalidConfig)
	}
	if cfg.MinInterestRate < 0 || cfg.MaxInterestRate < 0 {
		return nil, fmt.Errorf("%w: interest rates must be non-negative", ErrInvalidConfig)
	}
	if cfg.MaxInterestRate == 0 {
		cfg.MaxInterestRate = cfg.MinInterestRate
	}
	if cfg.MaxInterestRate < cfg.MinInterestRate {
		return nil, fmt.Errorf("%w: max interest rate below min", ErrInvalidConfig)
	}
	if cfg.MinPrincipal != nil && cfg.MinPrincipal.IsNegative() {
		return nil, fmt.Errorf("%w: min principal must be non-negative", ErrInvalidConfig)
	}
	if cfg.MinPrincipal != nil && cfg.MaxPrincipal != nil && cfg.MaxPrincipal.Less(*cfg.MinPrincipal) {
		return nil, fmt.Errorf("%w: max principal below min", ErrInvalidConfig)
	}
	cal := lender.model.Calendar()
	return &LoanOption{
		lender:             lender,
		name:               cfg.Name,
		term:               cal.NewDuration(cfg.TermDays),
		disbursementWindow: cal.NewDuration(cfg.DisbursementWindowDays),
		paymentWindow:      cal.NewDuration(cfg.PaymentWindowDays),
		minPrincipal:       cfg.MinPrincipal,
		maxPrincipal:       cfg.MaxPrincipal,
		minInterestRate:    cfg.MinInterestRate,
		maxInterestRate:    cfg.MaxInterestRate,
	}, nil
}

func (o *LoanOption) Lender() *Lender          { return o.lender }
func (o *LoanOption) Name() string             { return o.name }
func (o *LoanOption) Term() temporal.Duration  { return o.term }
func (o *LoanOption) MinInterestRate() float64 { return o.minInterestRate }
func (o *LoanOption) MaxInterestRate() float64 { return o.maxInterestRate }

// clampPrincipal folds a requested amount into the option's bounds.
func (o *LoanOption) clampPrincipal(principal money.Credit) money.Credit {
	if o.maxPrincipal != nil && principal.Greater(*o.maxPrincipal) {
		principal = *o.maxPrincipal
	}
	if o.minPrincipal != nil && principal.Less(*o.minPrincipal) {
		principal = *o.minPrincipal
	}
	return principal
}

// Apply opens a LoanApplication for the borrower and submits it to the
// lender's review queue.
func (o *LoanOption) Apply(borrower *Borrower, principal money.Credit, date temporal.Date) (*LoanApplication, error) {
	if !principal.IsPositive() {
		return nil, fmt.Errorf("%w: requested principal %s", ErrInvalidAmount, principal)
	}
	app := &LoanApplication{
		id:           uuid.NewString(),
		option:       o,
		lender:       o.lender,
		borrower:     borrower,
		principal:    o.clampPrincipal(principal),
		interestRate: o.minInterestRate,
		term:         o.term,
		dateOpened:   date,
		stepOpened:   o.lender.model.Steps(),
	}
	o.lender.enqueueApplication(app)
	o.lender.log().WithFields(logrus.Fields{
		"application": app.id,
		"borrower":    borrower.Name(),
		"lender":      o.lender.Name(),
		"principal":   app.principal.String(),
		"date":        date.String(),
	}).Debug("loan application submitted")
	return app, nil
}

// LoanApplication tracks one borrower's request against one loan option.
// The flags move strictly forward: opened, then reviewed by the lender
// (approved or denied), then decided by the borrower (accepted or
// rejected), then closed.
type LoanApplication struct {
	id           string
	option       *LoanOption
	lender       *Lender
	borrower     *Borrower
	principal    money.Credit
	interestRate float64
	term         temporal.Duration

	dateOpened   temporal.Date
	stepOpened   int
	approved     bool
	dateReviewed *temporal.Date
	accepted     bool
	dateDecided  *temporal.Date
	dateClosed   *temporal.Date
}

func (a *LoanApplication) ID() string                { return a.id }
func (a *LoanApplication) Option() *LoanOption       { return a.option }
func (a *LoanApplication) Lender() *Lender           { return a.lender }
func (a *LoanApplication) Borrower() *Borrower       { return a.borrower }
func (a *LoanApplication) Principal() money.Credit   { return a.principal }
func (a *LoanApplication) InterestRate() float64     { return a.interestRate }
func (a *LoanApplication) Term() temporal.Duration   { return a.term }
func (a *LoanApplication) DateOpened() temporal.Date { return a.dateOpened }

func (a *LoanApplication) Reviewed() bool { return a.dateReviewed != nil }
func (a *LoanApplication) Approved() bool { return a.approved }
func (a *LoanApplication) Denied() bool   { return a.Reviewed() && !a.approved }
func (a *LoanApplication) Decided() bool  { return a.dateDecided != nil }
func (a *LoanApplication) Accepted() bool { return a.accepted }
func (a *LoanApplication) Rejected() bool { return a.Decided() && !a.accepted }
func (a *LoanApplication) Closed() bool   { return a.dateClosed != nil }

// Approve records the lender's offer: the principal clamped into the
// option's bounds and a rate within its band. Reviewing twice is a logged
// no-op.
func (a *LoanApplication) Approve(date temporal.Date, principal money.Credit, rate float64) bool {
	log := a.lender.log().WithField("application", a.id)
	if a.Reviewed() {
		log.Debug("application already reviewed, approval ignored")
		return false
	}
	if rate < a.option.minInterestRate {
		rate = a.option.minInterestRate
	}
	if rate > a.option.maxInterestRate {
		rate = a.option.maxInterestRate
	}
	a.principal = a.option.clampPrincipal(principal)
	a.interestRate = rate
	a.approved = true
	a.dateReviewed = &date
	log.WithFields(logrus.Fields{
		"principal": a.principal.String(),
		"rate":      a.interestRate,
		"date":      date.String(),
	}).Info("loan application approved")
	return true
}

func (a *LoanApplication) Deny(date temporal.Date) bool {
	log := a.lender.log().WithField("application", a.id)
	if a.Reviewed() {
		log.Debug("application already reviewed, denial ignored")
		return false
	}
	a.dateReviewed = &date
	log.WithField("date", date.String()).Info("loan application denied")
	return true
}

// Accept records the borrower's decision and asks the lender to create the
// loan. Accepting an unreviewed, denied or already decided application is
// refused with a nil result.
func (a *LoanApplication) Accept(date temporal.Date) *Loan {
	log := a.lender.log().WithField("application", a.id)
	if a.Decided() {
		log.Warn("application already decided, acceptance ignored")
		return nil
	}
	if !a.approved {
		log.Warn("application is not approved, cannot accept")
		return nil
	}
	a.accepted = true
	a.dateDecided = &date
	log.WithField("date", date.String()).Info("loan application accepted")
	return a.lender.CreateLoan(a)
}

func (a *LoanApplication) Reject(date temporal.Date) bool {
	log := a.lender.log().WithField("application", a.id)
	if a.Decided() {
		log.Warn("application already decided, rejection ignored")
		return false
	}
	a.dateDecided = &date
	a.close(date)
	log.WithField("date", date.String()).Info("loan application rejected")
	return true
}

func (a *LoanApplication) close(date temporal.Date) {
	if a.dateClosed == nil {
		a.dateClosed = &date
	}
}
