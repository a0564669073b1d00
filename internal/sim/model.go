package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"econsim/internal/lending"
	"econsim/internal/market"
	"econsim/internal/metrics"
	"econsim/internal/money"
	"econsim/internal/temporal"
)

// Config assembles one simulation: its currency, its calendar shape and the
// seed for the shared random source.
type Config struct {
	Seed         int64
	CurrencySpec money.Spec
	CalendarSpec temporal.Spec
	Logger       *logrus.Logger
}

// DemandFunc decides how much money a borrower wants this step.
type DemandFunc func(*lending.Borrower) money.Credit

// Agent is the roster view of any participant.
type Agent interface {
	ID() string
	Name() string
	Counters() *metrics.Counters
	Wallet() money.Credit
}

// Model owns everything scoped to one simulation run: the step counter,
// currency, calendar, loan market, random source and the agent roster.
// Execution is single threaded; Step runs every agent's turn sequentially
// in roster order.
type Model struct {
	log        *logrus.Logger
	rng        *rand.Rand
	steps      int
	currency   *money.Currency
	calendar   *temporal.Calendar
	loanMarket *market.Market[*lending.Lender, *lending.LoanOption]

	borrowers []*lending.Borrower
	lenders   []*lending.Lender
	demand    map[string]DemandFunc
}

func New(cfg Config) (*Model, error) {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	currency, err := money.NewCurrency(cfg.CurrencySpec)
	if err != nil {
		return nil, fmt.Errorf("create currency: %w", err)
	}
	m := &Model{
		log:      log,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		currency: currency,
		demand:   make(map[string]DemandFunc),
	}
	calendar, err := temporal.NewCalendar(cfg.CalendarSpec, m, log)
	if err != nil {
		return nil, fmt.Errorf("create calendar: %w", err)
	}
	m.calendar = calendar
	m.loanMarket = market.New[*lending.Lender, *lending.LoanOption](m.rng)
	return m, nil
}

// Steps implements temporal.Clock.
func (m *Model) Steps() int { return m.steps }

func (m *Model) Calendar() *temporal.Calendar { return m.calendar }
func (m *Model) Currency() *money.Currency    { return m.currency }
func (m *Model) Logger() *logrus.Logger       { return m.log }
func (m *Model) Rand() *rand.Rand             { return m.rng }

func (m *Model) LoanMarket() *market.Market[*lending.Lender, *lending.LoanOption] {
	return m.loanMarket
}

// AddBorrower creates a borrower on this model's roster. The demand
// function may be nil for a borrower that never applies on its own.
func (m *Model) AddBorrower(cfg lending.BorrowerConfig, demand DemandFunc) (*lending.Borrower, error) {
	b, err := lending.NewBorrower(m, cfg)
	if err != nil {
		return nil, err
	}
	m.borrowers = append(m.borrowers, b)
	if demand != nil {
		m.demand[b.ID()] = demand
	}
	return b, nil
}

// AddLender creates a lender on this model's roster; its loan options are
// listed on the market.
func (m *Model) AddLender(cfg lending.LenderConfig) (*lending.Lender, error) {
	l, err := lending.NewLender(m, cfg)
	if err != nil {
		return nil, err
	}
	m.lenders = append(m.lenders, l)
	return l, nil
}

func (m *Model) Borrowers() []*lending.Borrower { return m.borrowers }
func (m *Model) Lenders() []*lending.Lender     { return m.lenders }

// Agents lists the whole roster, borrowers first, in creation order.
func (m *Model) Agents() []Agent {
	agents := make([]Agent, 0, len(m.borrowers)+len(m.lenders))
	for _, b := range m.borrowers {
		agents = append(agents, b)
	}
	for _, l := range m.lenders {
		agents = append(agents, l)
	}
	return agents
}

func (m *Model) AgentByID(id string) (Agent, bool) {
	for _, agent := range m.Agents() {
		if agent.ID() == id {
			return agent, true
		}
	}
	return nil, false
}

func (m *Model) moneyDemand(b *lending.Borrower) money.Credit {
	if demand, ok := m.demand[b.ID()]; ok {
		return demand(b)
	}
	return m.currency.Zero()
}

// Step advances the simulation by one step: the counter ticks, transient
// counters reset, then every borrower acts, then every lender, strictly in
// roster order. An application submitted this step is reviewed no earlier
// than the next one, because borrowers act before lenders.
func (m *Model) Step() {
	m.steps++
	for _, agent := range m.Agents() {
		agent.Counters().ResetTransient()
	}
	for _, b := range m.borrowers {
		b.ApplyForLoans(m.moneyDemand(b))
		b.RespondToLoanOffers()
		b.MakeLoanPayments()
		b.ReceiveLoanDisbursements()
	}
	for _, l := range m.lenders {
		l.ReviewLoanApplications()
		l.MakeLoanDisbursements()
	}
	if !m.Conserved() {
		m.log.WithField("step", m.steps).Error("money conservation violated")
	}
}

// Run advances the simulation by n steps.
func (m *Model) Run(n int) {
	for i := 0; i < n; i++ {
		m.Step()
	}
}

// Conserved checks the double-entry invariant over the whole roster using
// the cumulative counters: credit issued minus credit redeemed must equal
// debt received minus debt repaid.
func (m *Model) Conserved() bool {
	issued := m.currency.Zero()
	redeemed := m.currency.Zero()
	received := m.currency.Zero()
	repaid := m.currency.Zero()
	for _, l := range m.lenders {
		issued, _ = issued.Add(l.Counters().Credit("credit_issued"))
		redeemed, _ = redeemed.Add(l.Counters().Credit("credit_redeemed"))
		received, _ = received.Add(l.Counters().Credit("debt_received"))
		repaid, _ = repaid.Add(l.Counters().Credit("debt_repaid"))
	}
	for _, b := range m.borrowers {
		received, _ = received.Add(b.Counters().Credit("debt_received"))
		repaid, _ = repaid.Add(b.Counters().Credit("debt_repaid"))
	}
	lhs, _ := issued.Sub(redeemed)
	rhs, _ := received.Sub(repaid)
	return lhs.Equal(rhs)
}

// OutstandingCredit sums the lenders' live credit balances.
func (m *Model) OutstandingCredit() money.Credit {
	total := m.currency.Zero()
	for _, l := range m.lenders {
		total, _ = total.Add(l.OutstandingCredit())
	}
	return total
}

// StepSnapshot is the per-step metrics view pushed to subscribers and
// served over the status endpoint.
type StepSnapshot struct {
	Step              int    `json:"step"`
	Date              string `json:"date"`
	Agents            int    `json:"agents"`
	CreditIssued      string `json:"credit_issued"`
	CreditRedeemed    string `json:"credit_redeemed"`
	OutstandingCredit string `json:"outstanding_credit"`
	InterestCollected string `json:"interest_collected"`
	Conserved         bool   `json:"conserved"`
}

func (m *Model) Snapshot() StepSnapshot {
	issued := m.currency.Zero()
	redeemed := m.currency.Zero()
	interest := m.currency.Zero()
	for _, l := range m.lenders {
		issued, _ = issued.Add(l.Counters().Credit("credit_issued"))
		redeemed, _ = redeemed.Add(l.Counters().Credit("credit_redeemed"))
		interest, _ = interest.Add(l.Counters().Credit("interest_collected"))
	}
	return StepSnapshot{
		Step:              m.steps,
		Date:              m.calendar.Today().String(),
		Agents:            len(m.borrowers) + len(m.lenders),
		CreditIssued:      issued.Amount().String(),
		CreditRedeemed:    redeemed.Amount().String(),
		OutstandingCredit: m.OutstandingCredit().Amount().String(),
		InterestCollected: interest.Amount().String(),
		Conserved:         m.Conserved(),
	}
}
