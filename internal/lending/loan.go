package lending

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"econsim/internal/money"
	"econsim/internal/temporal"
)

// Loan creates money: the lender issues new credit against it and redeems
// that credit as the borrower repays. The balance is the live principal,
// reduced by amortization and increased by capitalization.
type Loan struct {
	id           string
	lender       *Lender
	borrower     *Borrower
	dateIssued   temporal.Date
	balance      money.Credit
	interestRate float64
	term         temporal.Duration

	disbursements []*LoanDisbursement
	payments      []*LoanPayment

	dateClosed *temporal.Date
}

// newLoan builds a loan with bullet schedules: the full principal disbursed
// at issue and a single payment of principal plus simple interest due at the
// end of the term. Interest is fixed when the schedule is built so that
// repayment extinguishes exactly the principal.
func newLoan(lender *Lender, borrower *Borrower, dateIssued temporal.Date, principal money.Credit,
	interestRate float64, term temporal.Duration, disbursementWindow, paymentWindow temporal.Duration) (*Loan, error) {

	loan := &Loan{
		id:           uuid.NewString(),
		lender:       lender,
		borrower:     borrower,
		dateIssued:   dateIssued,
		balance:      principal,
		interestRate: interestRate,
		term:         term,
	}
	dueDate, err := dateIssued.Add(term)
	if err != nil {
		return nil, err
	}
	interest := principal.MulFloat(interestRate * float64(term.Days()))
	amountDue, err := principal.Add(interest)
	if err != nil {
		return nil, err
	}
	loan.disbursements = []*LoanDisbursement{{
		id:        uuid.NewString(),
		loan:      loan,
		amountDue: principal,
		dateDue:   dateIssued,
		window:    disbursementWindow,
	}}
	loan.payments = []*LoanPayment{{
		id:           uuid.NewString(),
		loan:         loan,
		amountDue:    amountDue,
		principalDue: principal,
		interestDue:  interest,
		dateDue:      dueDate,
		window:       paymentWindow,
	}}
	return loan, nil
}

func (l *Loan) ID() string                { return l.id }
func (l *Loan) Lender() *Lender           { return l.lender }
func (l *Loan) Borrower() *Borrower       { return l.borrower }
func (l *Loan) DateIssued() temporal.Date { return l.dateIssued }
func (l *Loan) InterestRate() float64     { return l.interestRate }
func (l *Loan) Term() temporal.Duration   { return l.term }

// Balance is the outstanding principal.
func (l *Loan) Balance() money.Credit { return l.balance }

func (l *Loan) DueDate() temporal.Date {
	due, _ := l.dateIssued.Add(l.term)
	return due
}

func (l *Loan) Closed() bool { return l.dateClosed != nil }

func (l *Loan) DateClosed() (temporal.Date, bool) {
	if l.dateClosed == nil {
		return temporal.Date{}, false
	}
	return *l.dateClosed, true
}

func (l *Loan) Capitalize(amount money.Credit) error {
	balance, err := l.balance.Add(amount)
	if err != nil {
		return err
	}
	l.balance = balance
	return nil
}

func (l *Loan) Amortize(amount money.Credit) error {
	balance, err := l.balance.Sub(amount)
	if err != nil {
		return err
	}
	l.balance = balance
	return nil
}

func (l *Loan) DisbursementSchedule() []*LoanDisbursement { return l.disbursements }
func (l *Loan) PaymentSchedule() []*LoanPayment           { return l.payments }

func (l *Loan) DisbursementsDue(date temporal.Date) []*LoanDisbursement {
	var due []*LoanDisbursement
	for _, d := range l.disbursements {
		if d.IsDue(date) {
			due = append(due, d)
		}
	}
	return due
}

func (l *Loan) PaymentsDue(date temporal.Date) []*LoanPayment {
	var due []*LoanPayment
	for _, p := range l.payments {
		if p.IsDue(date) {
			due = append(due, p)
		}
	}
	return due
}

// maybeClose records the closing date once the balance is tolerance-zero,
// every disbursement is terminal and every payment is paid.
func (l *Loan) maybeClose(date temporal.Date) {
	if l.Closed() || !l.balance.IsZero() {
		return
	}
	for _, d := range l.disbursements {
		if !d.Terminal() {
			return
		}
	}
	for _, p := range l.payments {
		if !p.Paid() {
			return
		}
	}
	l.dateClosed = &date
	l.lender.log().WithFields(logrus.Fields{
		"loan": l.id,
		"date": date.String(),
	}).Info("loan closed")
}

// LoanDisbursement is one scheduled transfer of newly issued credit from
// lender to borrower. States are forward-only: pending, requested, then
// terminally completed or expired.
type LoanDisbursement struct {
	id        string
	loan      *Loan
	amountDue money.Credit
	dateDue   temporal.Date
	window    temporal.Duration

	requested       bool
	amountRequested money.Credit
	amountDisbursed money.Credit
	dateDisbursed   *temporal.Date
	dateExpired     *temporal.Date
}

func (d *LoanDisbursement) ID() string                 { return d.id }
func (d *LoanDisbursement) Loan() *Loan                { return d.loan }
func (d *LoanDisbursement) AmountDue() money.Credit    { return d.amountDue }
func (d *LoanDisbursement) DateDue() temporal.Date     { return d.dateDue }
func (d *LoanDisbursement) Window() temporal.Duration  { return d.window }
func (d *LoanDisbursement) Requested() bool            { return d.requested }
func (d *LoanDisbursement) Disbursed() bool            { return d.dateDisbursed != nil }
func (d *LoanDisbursement) Expired() bool              { return d.dateExpired != nil }
func (d *LoanDisbursement) Terminal() bool             { return d.Disbursed() || d.Expired() }
func (d *LoanDisbursement) AmountDisbursed() money.Credit { return d.amountDisbursed }

// windowEnd is the last date on which the disbursement may complete. When
// the window runs off the calendar the disbursement never expires.
func (d *LoanDisbursement) windowEnd() (temporal.Date, bool) {
	end, err := d.dateDue.Add(d.window)
	if err != nil {
		return temporal.Date{}, false
	}
	return end, true
}

// IsDue reports whether the disbursement can complete on the given date:
// not yet terminal and within [dateDue, dateDue+window].
func (d *LoanDisbursement) IsDue(date temporal.Date) bool {
	if d.Terminal() || date.Before(d.dateDue) {
		return false
	}
	if end, ok := d.windowEnd(); ok && date.After(end) {
		return false
	}
	return true
}

// Request moves the disbursement to requested, provided the window has not
// already elapsed. Repeat calls are ignored.
func (d *LoanDisbursement) Request(amount money.Credit, date temporal.Date) bool {
	if d.Terminal() || d.requested {
		d.loan.lender.log().WithField("disbursement", d.id).Debug("disbursement already requested, request ignored")
		return false
	}
	if end, ok := d.windowEnd(); ok && date.After(end) {
		d.loan.lender.log().WithField("disbursement", d.id).Warn("disbursement requested outside its window")
		return false
	}
	d.requested = true
	d.amountRequested = amount
	return true
}

// Complete performs the transfer: the lender disburses freshly issued debt
// and the borrower receives it. Out-of-window or repeat calls are logged
// no-ops.
func (d *LoanDisbursement) Complete(date temporal.Date) (bool, error) {
	log := d.loan.lender.log().WithField("disbursement", d.id)
	if d.Terminal() {
		log.Debug("disbursement already terminal, complete ignored")
		return false, nil
	}
	if !d.IsDue(date) {
		log.WithField("date", date.String()).Warn("disbursement completion attempted outside its window")
		return false, nil
	}
	credit, err := d.loan.lender.DisburseDebt(d.amountDue)
	if err != nil {
		return false, err
	}
	if err := d.loan.borrower.ReceiveDebt(credit); err != nil {
		return false, err
	}
	d.amountDisbursed = credit
	d.dateDisbursed = &date
	log.WithFields(logrus.Fields{
		"amount": credit.String(),
		"date":   date.String(),
	}).Info("loan disbursement completed")
	return true, nil
}

// Expire retires a disbursement whose window has elapsed without
// completion. Nothing is transferred.
func (d *LoanDisbursement) Expire(date temporal.Date) bool {
	log := d.loan.lender.log().WithField("disbursement", d.id)
	if d.Terminal() {
		log.Debug("disbursement already terminal, expire ignored")
		return false
	}
	if end, ok := d.windowEnd(); !ok || !date.After(end) {
		log.WithField("date", date.String()).Warn("disbursement expiry attempted inside its window")
		return false
	}
	d.dateExpired = &date
	d.loan.maybeClose(date)
	log.WithField("date", date.String()).Info("loan disbursement expired")
	return true
}

// LoanPayment is one scheduled repayment from borrower to lender. Unlike a
// disbursement it never expires: an unpaid payment stays due indefinitely.
type LoanPayment struct {
	id           string
	loan         *Loan
	amountDue    money.Credit
	principalDue money.Credit
	interestDue  money.Credit
	dateDue      temporal.Date
	window       temporal.Duration

	amountPaid money.Credit
	datePaid   *temporal.Date
}

func (p *LoanPayment) ID() string                { return p.id }
func (p *LoanPayment) Loan() *Loan               { return p.loan }
func (p *LoanPayment) AmountDue() money.Credit   { return p.amountDue }
func (p *LoanPayment) PrincipalDue() money.Credit { return p.principalDue }
func (p *LoanPayment) InterestDue() money.Credit { return p.interestDue }
func (p *LoanPayment) DateDue() temporal.Date    { return p.dateDue }
func (p *LoanPayment) Window() temporal.Duration { return p.window }
func (p *LoanPayment) Paid() bool                { return p.datePaid != nil }
func (p *LoanPayment) AmountPaid() money.Credit  { return p.amountPaid }

// IsDue reports whether the payment can be made on the given date: unpaid
// and on or after dateDue minus the window.
func (p *LoanPayment) IsDue(date temporal.Date) bool {
	if p.Paid() {
		return false
	}
	earliest, err := p.dateDue.Add(p.window.Neg())
	if err != nil {
		earliest = p.dateDue
	}
	return !date.Before(earliest)
}

func (p *LoanPayment) IsOverdue(date temporal.Date) bool {
	return !p.Paid() && date.After(p.dateDue)
}

// Complete performs the transfer: the borrower surrenders the full amount,
// the principal share is redeemed against the lender's outstanding credit
// and the interest share lands in the lender's own wallet. An
// ErrInsufficientCredit from the borrower propagates so callers can skip
// the payment; guard violations are logged no-ops.
func (p *LoanPayment) Complete(date temporal.Date) (bool, error) {
	log := p.loan.lender.log().WithField("payment", p.id)
	if p.Paid() {
		log.Debug("payment already paid, complete ignored")
		return false, nil
	}
	if !p.IsDue(date) {
		log.WithField("date", date.String()).Warn("payment attempted before it came due")
		return false, nil
	}
	credit, err := p.loan.borrower.RepayDebt(p.amountDue, p.principalDue)
	if err != nil {
		return false, err
	}
	if err := p.loan.lender.ExtinguishDebt(p.principalDue); err != nil {
		return false, err
	}
	if p.interestDue.IsPositive() {
		if err := p.loan.lender.CollectInterest(p.interestDue); err != nil {
			return false, err
		}
	}
	if err := p.loan.Amortize(p.principalDue); err != nil {
		return false, err
	}
	p.amountPaid = credit
	p.datePaid = &date
	p.loan.maybeClose(date)
	log.WithFields(logrus.Fields{
		"amount": credit.String(),
		"date":   date.String(),
	}).Info("loan payment completed")
	return true, nil
}
