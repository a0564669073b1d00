package lending

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"econsim/internal/metrics"
	"econsim/internal/money"
	"econsim/internal/temporal"
)

const defaultApplicationLimit = 3

// BorrowerConfig bounds a borrower's appetite. Zero limits fall back to
// defaults (applications) or mean unlimited (loans); a nil DebtLimit is
// unlimited.
type BorrowerConfig struct {
	Name             string
	ApplicationLimit int
	DebtLimit        *money.Credit
	LoanLimit        int
}

// Borrower can search the loan market, apply, accept offers, receive
// disbursements and make payments. Decision points are exposed as hook
// fields; a nil hook uses the permissive default. Hooks are pure
// predicates, called before any state mutation.
type Borrower struct {
	id       string
	name     string
	model    Model
	counters *metrics.Counters
	wallet   money.Credit

	applicationLimit int
	debtLimit        *money.Credit
	loanLimit        int

	openApplications   []*LoanApplication
	closedApplications []*LoanApplication
	loans              []*Loan

	ShouldApplyFor            func(option *LoanOption, demand money.Credit) bool
	CanAcceptLoan             func(*LoanApplication) bool
	ShouldAcceptLoan          func(*LoanApplication) bool
	CanReceiveDisbursement    func(*LoanDisbursement) bool
	ShouldReceiveDisbursement func(*LoanDisbursement) bool
	CanPayLoan                func(*LoanPayment) bool
	ShouldPayLoan             func(*LoanPayment) bool
	PrioritizeLoanOffers      func([]*LoanApplication)
	PrioritizeDisbursements   func([]*LoanDisbursement)
	PrioritizePayments        func([]*LoanPayment)
}

func NewBorrower(model Model, cfg BorrowerConfig) (*Borrower, error) {
	b := &Borrower{}
	if err := b.init(model, cfg); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Borrower) init(model Model, cfg BorrowerConfig) error {
	if model == nil {
		return fmt.Errorf("%w: model must not be nil", ErrInvalidConfig)
	}
	if cfg.ApplicationLimit < 0 {
		return fmt.Errorf("%w: application limit %d must be non-negative", ErrInvalidConfig, cfg.ApplicationLimit)
	}
	if cfg.LoanLimit < 0 {
		return fmt.Errorf("%w: loan limit %d must be non-negative", ErrInvalidConfig, cfg.LoanLimit)
	}
	if cfg.DebtLimit != nil && cfg.DebtLimit.IsNegative() {
		return fmt.Errorf("%w: debt limit must be non-negative", ErrInvalidConfig)
	}
	if cfg.ApplicationLimit == 0 {
		cfg.ApplicationLimit = defaultApplicationLimit
	}

	b.id = uuid.NewString()
	b.name = cfg.Name
	b.model = model
	b.counters = metrics.NewCounters()
	b.wallet = model.Currency().Zero()
	b.applicationLimit = cfg.ApplicationLimit
	b.debtLimit = cfg.DebtLimit
	b.loanLimit = cfg.LoanLimit

	if err := b.counters.AddInt(true, "loans_incurred"); err != nil {
		return err
	}
	if err := b.counters.AddCredit(model.Currency(), false,
		"debt_incurred", "credit_taken", "credit_given"); err != nil {
		return err
	}
	return b.counters.AddCredit(model.Currency(), true, "debt_received", "debt_repaid")
}

func (b *Borrower) ID() string                  { return b.id }
func (b *Borrower) Name() string                { return b.name }
func (b *Borrower) Model() Model                { return b.model }
func (b *Borrower) Counters() *metrics.Counters { return b.counters }
func (b *Borrower) Wallet() money.Credit        { return b.wallet }
func (b *Borrower) ApplicationLimit() int       { return b.applicationLimit }
func (b *Borrower) Loans() []*Loan              { return b.loans }

func (b *Borrower) log() *logrus.Logger { return b.model.Logger() }

// Endow places credit into the wallet outside the lending flow. Used to
// seed starting balances; it touches no counters.
func (b *Borrower) Endow(amount money.Credit) error {
	wallet, err := b.wallet.Add(amount)
	if err != nil {
		return err
	}
	b.wallet = wallet
	return nil
}

// OutstandingDebt is the sum of the balances of every loan held.
func (b *Borrower) OutstandingDebt() money.Credit {
	total := b.model.Currency().Zero()
	for _, loan := range b.loans {
		total, _ = total.Add(loan.Balance())
	}
	return total
}

// DebtCapacity is how much more debt the borrower may take on, or nil when
// unlimited.
func (b *Borrower) DebtCapacity() *money.Credit {
	if b.debtLimit == nil {
		return nil
	}
	capacity, err := b.debtLimit.Sub(b.OutstandingDebt())
	if err != nil {
		return nil
	}
	if capacity.IsNegative() {
		capacity = b.model.Currency().Zero()
	}
	return &capacity
}

// LoanOffers are the open applications the lender has reviewed and the
// borrower has not yet decided.
func (b *Borrower) LoanOffers() []*LoanApplication {
	var offers []*LoanApplication
	for _, app := range b.openApplications {
		if app.Reviewed() && !app.Decided() {
			offers = append(offers, app)
		}
	}
	return offers
}

func (b *Borrower) SearchForLoans(limit int) []*LoanOption {
	return b.model.LoanMarket().Sample(limit)
}

// ApplyForLoans opens applications for the demanded amount against sampled
// market options, up to the application limit. Returns how many were
// submitted.
func (b *Borrower) ApplyForLoans(demand money.Credit) int {
	if !demand.IsPositive() {
		b.log().WithField("borrower", b.name).Debug("no positive money demand, skipping applications")
		return 0
	}
	today := b.model.Calendar().Today()
	successes := 0
	for _, option := range b.SearchForLoans(b.applicationLimit) {
		if !b.shouldApplyFor(option, demand) {
			continue
		}
		app, err := option.Apply(b, demand, today)
		if err != nil {
			b.log().WithError(err).WithField("borrower", b.name).Warn("loan application failed")
			continue
		}
		b.openApplications = append(b.openApplications, app)
		successes++
	}
	return successes
}

// RespondToLoanOffers accepts or rejects every reviewed application. On
// acceptance the loan is recorded and all of its disbursements are
// requested. Returns how many offers were accepted.
func (b *Borrower) RespondToLoanOffers() int {
	offers := b.LoanOffers()
	if b.PrioritizeLoanOffers != nil {
		b.PrioritizeLoanOffers(offers)
	}
	today := b.model.Calendar().Today()
	successes := 0
	for _, app := range offers {
		if b.canAcceptLoan(app) && b.shouldAcceptLoan(app) {
			if loan := app.Accept(today); loan != nil {
				b.loans = append(b.loans, loan)
				_ = b.counters.Inc("loans_incurred")
				_ = b.counters.IncCredit("debt_incurred", loan.Balance())
				for _, d := range loan.DisbursementSchedule() {
					d.Request(d.AmountDue(), today)
				}
				successes++
			}
		} else {
			app.Reject(today)
		}
		b.retireApplication(app)
	}
	return successes
}

func (b *Borrower) retireApplication(app *LoanApplication) {
	for i, open := range b.openApplications {
		if open == app {
			b.openApplications = append(b.openApplications[:i], b.openApplications[i+1:]...)
			b.closedApplications = append(b.closedApplications, app)
			return
		}
	}
}

// DisbursementsOwed lists every due disbursement across the borrower's
// loans.
func (b *Borrower) DisbursementsOwed(date temporal.Date) []*LoanDisbursement {
	var due []*LoanDisbursement
	for _, loan := range b.loans {
		due = append(due, loan.DisbursementsDue(date)...)
	}
	return due
}

// PaymentsDue lists every due payment across the borrower's loans.
func (b *Borrower) PaymentsDue(date temporal.Date) []*LoanPayment {
	var due []*LoanPayment
	for _, loan := range b.loans {
		due = append(due, loan.PaymentsDue(date)...)
	}
	return due
}

// ReceiveLoanDisbursements completes every due disbursement the hooks
// allow. Returns how many completed.
func (b *Borrower) ReceiveLoanDisbursements() int {
	today := b.model.Calendar().Today()
	disbursements := b.DisbursementsOwed(today)
	if b.PrioritizeDisbursements != nil {
		b.PrioritizeDisbursements(disbursements)
	}
	successes := 0
	for _, d := range disbursements {
		if !b.canReceiveDisbursement(d) || !b.shouldReceiveDisbursement(d) {
			continue
		}
		done, err := d.Complete(today)
		if err != nil {
			b.log().WithError(err).WithField("borrower", b.name).Warn("disbursement failed")
			continue
		}
		if done {
			successes++
		}
	}
	return successes
}

// MakeLoanPayments completes every due payment the hooks allow. A payment
// the wallet cannot cover is skipped, not fatal. Returns how many
// completed.
func (b *Borrower) MakeLoanPayments() int {
	today := b.model.Calendar().Today()
	payments := b.PaymentsDue(today)
	if b.PrioritizePayments != nil {
		b.PrioritizePayments(payments)
	}
	successes := 0
	for _, p := range payments {
		if !b.canPayLoan(p) || !b.shouldPayLoan(p) {
			continue
		}
		done, err := p.Complete(today)
		if err != nil {
			b.log().WithError(err).WithField("borrower", b.name).Warn("loan payment failed")
			continue
		}
		if done {
			successes++
		}
	}
	return successes
}

// GiveCredit removes credit from the wallet and returns it. Surrendering
// more than held is an ErrInsufficientCredit.
func (b *Borrower) GiveCredit(amount money.Credit) (money.Credit, error) {
	if !amount.IsPositive() {
		return money.Credit{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if b.wallet.Less(amount) {
		return money.Credit{}, fmt.Errorf("%w: holds %s, cannot give %s",
			ErrInsufficientCredit, b.wallet, amount)
	}
	wallet, err := b.wallet.Sub(amount)
	if err != nil {
		return money.Credit{}, err
	}
	b.wallet = wallet
	_ = b.counters.IncCredit("credit_given", amount)
	return amount, nil
}

// TakeCredit adds credit to the wallet.
func (b *Borrower) TakeCredit(credit money.Credit) error {
	wallet, err := b.wallet.Add(credit)
	if err != nil {
		return err
	}
	b.wallet = wallet
	_ = b.counters.IncCredit("credit_taken", credit)
	return nil
}

// RepayDebt surrenders the full payment amount; only the principal share
// counts toward debt repaid, the rest is interest.
func (b *Borrower) RepayDebt(amount, principal money.Credit) (money.Credit, error) {
	credit, err := b.GiveCredit(amount)
	if err != nil {
		return money.Credit{}, err
	}
	_ = b.counters.IncCredit("debt_repaid", principal)
	return credit, nil
}

// ReceiveDebt takes disbursed credit and records it as debt received.
func (b *Borrower) ReceiveDebt(credit money.Credit) error {
	if err := b.TakeCredit(credit); err != nil {
		return err
	}
	_ = b.counters.IncCredit("debt_received", credit)
	return nil
}

// Hook dispatch: nil fields fall back to the defaults below.

func (b *Borrower) shouldApplyFor(option *LoanOption, demand money.Credit) bool {
	if b.ShouldApplyFor != nil {
		return b.ShouldApplyFor(option, demand)
	}
	return true
}

func (b *Borrower) canAcceptLoan(app *LoanApplication) bool {
	if b.CanAcceptLoan != nil {
		return b.CanAcceptLoan(app)
	}
	if !app.Approved() {
		return false
	}
	if b.loanLimit > 0 && len(b.loans) >= b.loanLimit {
		return false
	}
	if capacity := b.DebtCapacity(); capacity != nil && capacity.Less(app.Principal()) {
		return false
	}
	return true
}

func (b *Borrower) shouldAcceptLoan(app *LoanApplication) bool {
	if b.ShouldAcceptLoan != nil {
		return b.ShouldAcceptLoan(app)
	}
	return true
}

func (b *Borrower) canReceiveDisbursement(d *LoanDisbursement) bool {
	if b.CanReceiveDisbursement != nil {
		return b.CanReceiveDisbursement(d)
	}
	return true
}

func (b *Borrower) shouldReceiveDisbursement(d *LoanDisbursement) bool {
	if b.ShouldReceiveDisbursement != nil {
		return b.ShouldReceiveDisbursement(d)
	}
	return true
}

func (b *Borrower) canPayLoan(p *LoanPayment) bool {
	if b.CanPayLoan != nil {
		return b.CanPayLoan(p)
	}
	return b.wallet.GreaterOrEqual(p.AmountDue())
}

func (b *Borrower) shouldPayLoan(p *LoanPayment) bool {
	if b.ShouldPayLoan != nil {
		return b.ShouldPayLoan(p)
	}
	return true
}
