package lending

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"econsim/internal/money"
)

// LenderConfig extends BorrowerConfig with the review throttle and the
// loan products to list on the market. A zero ReviewLimit drains the whole
// queue each step.
type LenderConfig struct {
	BorrowerConfig
	ReviewLimit int
	Options     []LoanOptionConfig
}

// Lender is a borrower that can also create money: it reviews
// applications, issues credit against loans and redeems it as they are
// repaid. outstanding tracks every unit issued and not yet redeemed.
type Lender struct {
	Borrower

	reviewLimit int
	queue       []*LoanApplication
	options     []*LoanOption

	loanBook             map[string][]*Loan
	pendingDisbursements []*LoanDisbursement
	outstanding          money.Credit

	CanApproveLoan             func(*LoanApplication) bool
	ShouldApproveLoan          func(*LoanApplication) bool
	CanDisburseLoan            func(*LoanDisbursement) bool
	ShouldDisburseLoan         func(*LoanDisbursement) bool
	PrioritizeDisbursementsDue func([]*LoanDisbursement)
}

func NewLender(model Model, cfg LenderConfig) (*Lender, error) {
	if cfg.ReviewLimit < 0 {
		return nil, fmt.Errorf("%w: review limit %d must be non-negative", ErrInvalidConfig, cfg.ReviewLimit)
	}
	l := &Lender{
		reviewLimit: cfg.ReviewLimit,
		loanBook:    make(map[string][]*Loan),
	}
	if err := l.Borrower.init(model, cfg.BorrowerConfig); err != nil {
		return nil, err
	}
	l.outstanding = model.Currency().Zero()

	if err := l.counters.AddInt(true, "loans_created"); err != nil {
		return nil, err
	}
	if err := l.counters.AddCredit(model.Currency(), false,
		"debt_created", "debt_disbursed", "debt_extinguished"); err != nil {
		return nil, err
	}
	if err := l.counters.AddCredit(model.Currency(), true,
		"credit_issued", "credit_redeemed", "interest_collected"); err != nil {
		return nil, err
	}

	for _, optCfg := range cfg.Options {
		option, err := newLoanOption(l, optCfg)
		if err != nil {
			return nil, err
		}
		l.options = append(l.options, option)
	}
	if len(l.options) > 0 {
		model.LoanMarket().Register(l, l.options...)
	}
	return l, nil
}

func (l *Lender) Options() []*LoanOption { return l.options }

// OutstandingCredit is the running balance of credit issued and not yet
// redeemed.
func (l *Lender) OutstandingCredit() money.Credit { return l.outstanding }

func (l *Lender) QueueLength() int { return len(l.queue) }

func (l *Lender) enqueueApplication(app *LoanApplication) {
	l.queue = append(l.queue, app)
}

// LoanBook lists the loans issued to one borrower.
func (l *Lender) LoanBook(borrower *Borrower) []*Loan {
	return l.loanBook[borrower.ID()]
}

// ReviewLoanApplications drains the FIFO queue, up to the review limit,
// approving or denying each application via the hooks. Applications
// submitted in the current step wait for a later step. Returns how many
// were approved.
func (l *Lender) ReviewLoanApplications() int {
	n := len(l.queue)
	if l.reviewLimit > 0 && l.reviewLimit < n {
		n = l.reviewLimit
	}
	for i := 0; i < n; i++ {
		if l.queue[i].stepOpened >= l.model.Steps() {
			n = i
			break
		}
	}
	batch := l.queue[:n]
	l.queue = l.queue[n:]

	today := l.model.Calendar().Today()
	successes := 0
	for _, app := range batch {
		if l.canApproveLoan(app) && l.shouldApproveLoan(app) {
			app.Approve(today, app.Principal(), app.InterestRate())
			successes++
		} else {
			app.Deny(today)
		}
	}
	return successes
}

// MakeLoanDisbursements completes every due disbursement the hooks allow
// and expires those whose window has elapsed. Returns how many completed.
func (l *Lender) MakeLoanDisbursements() int {
	today := l.model.Calendar().Today()
	if l.PrioritizeDisbursementsDue != nil {
		l.PrioritizeDisbursementsDue(l.pendingDisbursements)
	}
	successes := 0
	remaining := l.pendingDisbursements[:0]
	for _, d := range l.pendingDisbursements {
		if d.Terminal() {
			continue
		}
		if d.IsDue(today) && l.canDisburseLoan(d) && l.shouldDisburseLoan(d) {
			done, err := d.Complete(today)
			if err != nil {
				l.log().WithError(err).WithField("lender", l.name).Warn("disbursement failed")
			} else if done {
				successes++
			}
		} else if end, ok := d.windowEnd(); ok && today.After(end) {
			d.Expire(today)
		}
		if !d.Terminal() {
			remaining = append(remaining, d)
		}
	}
	l.pendingDisbursements = remaining
	return successes
}

// IssueCredit creates new credit, adding it to the outstanding balance.
func (l *Lender) IssueCredit(amount money.Credit) (money.Credit, error) {
	if !amount.IsPositive() {
		return money.Credit{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	outstanding, err := l.outstanding.Add(amount)
	if err != nil {
		return money.Credit{}, err
	}
	l.outstanding = outstanding
	_ = l.counters.IncCredit("credit_issued", amount)
	return amount, nil
}

// RedeemCredit destroys credit, removing it from the outstanding balance.
func (l *Lender) RedeemCredit(credit money.Credit) error {
	if !credit.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, credit)
	}
	outstanding, err := l.outstanding.Sub(credit)
	if err != nil {
		return err
	}
	l.outstanding = outstanding
	_ = l.counters.IncCredit("credit_redeemed", credit)
	return nil
}

// DisburseDebt issues credit destined for a borrower.
func (l *Lender) DisburseDebt(amount money.Credit) (money.Credit, error) {
	debt, err := l.IssueCredit(amount)
	if err != nil {
		return money.Credit{}, err
	}
	_ = l.counters.IncCredit("debt_disbursed", debt)
	return debt, nil
}

// ExtinguishDebt redeems repaid principal.
func (l *Lender) ExtinguishDebt(amount money.Credit) error {
	if err := l.RedeemCredit(amount); err != nil {
		return err
	}
	_ = l.counters.IncCredit("debt_extinguished", amount)
	return nil
}

// CollectInterest moves the interest share of a payment into the lender's
// own wallet.
func (l *Lender) CollectInterest(amount money.Credit) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	wallet, err := l.wallet.Add(amount)
	if err != nil {
		return err
	}
	l.wallet = wallet
	_ = l.counters.IncCredit("interest_collected", amount)
	return nil
}

// CreateLoan turns an accepted application into a loan, closing the
// application and scheduling its disbursements. Refused (nil) unless the
// application is accepted and still open.
func (l *Lender) CreateLoan(app *LoanApplication) *Loan {
	log := l.log().WithField("application", app.ID())
	if !app.Accepted() || app.Closed() {
		log.Warn("loan creation refused, application not accepted or already closed")
		return nil
	}
	today := l.model.Calendar().Today()
	app.close(today)

	loan, err := newLoan(l, app.Borrower(), today, app.Principal(), app.InterestRate(), app.Term(),
		app.Option().disbursementWindow, app.Option().paymentWindow)
	if err != nil {
		log.WithError(err).Warn("loan creation failed")
		return nil
	}
	l.loanBook[app.Borrower().ID()] = append(l.loanBook[app.Borrower().ID()], loan)
	l.pendingDisbursements = append(l.pendingDisbursements, loan.disbursements...)
	_ = l.counters.Inc("loans_created")
	_ = l.counters.IncCredit("debt_created", loan.Balance())
	log.WithFields(logrus.Fields{
		"loan":      loan.ID(),
		"borrower":  app.Borrower().Name(),
		"principal": loan.Balance().String(),
		"date":      today.String(),
	}).Info("loan created")
	return loan
}

func (l *Lender) canApproveLoan(app *LoanApplication) bool {
	if l.CanApproveLoan != nil {
		return l.CanApproveLoan(app)
	}
	return true
}

func (l *Lender) shouldApproveLoan(app *LoanApplication) bool {
	if l.ShouldApproveLoan != nil {
		return l.ShouldApproveLoan(app)
	}
	return true
}

func (l *Lender) canDisburseLoan(d *LoanDisbursement) bool {
	if l.CanDisburseLoan != nil {
		return l.CanDisburseLoan(d)
	}
	return true
}

func (l *Lender) shouldDisburseLoan(d *LoanDisbursement) bool {
	if l.ShouldDisburseLoan != nil {
		return l.ShouldDisburseLoan(d)
	}
	return d.Requested()
}
