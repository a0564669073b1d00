package sim

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"econsim/internal/lending"
	"econsim/internal/money"
	"econsim/internal/temporal"
)

func testModel(t *testing.T) *Model {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	m, err := New(Config{
		Seed: 1,
		CurrencySpec: money.Spec{
			Code: "SIM", Symbol: "$", UnitName: "dollar", Precision: 2,
		},
		CalendarSpec: temporal.Spec{
			DaysPerWeek:  5,
			DaysPerMonth: temporal.UniformMonths(10, 30),
			StartYear:    1,
			StartMonth:   1,
			StartDay:     1,
			MaxYear:      100,
			StepsToDays:  temporal.Ratio{Steps: 1, Days: 1},
		},
		Logger: log,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return m
}

func TestStepAdvancesClockAndCalendar(t *testing.T) {
	m := testModel(t)
	if m.Steps() != 0 {
		t.Fatalf("fresh model should be at step 0, got %d", m.Steps())
	}
	m.Run(3)
	if m.Steps() != 3 {
		t.Fatalf("expected step 3, got %d", m.Steps())
	}
	if got := m.Calendar().Today().String(); got != "1-1-4" {
		t.Fatalf("expected date 1-1-4 after 3 steps, got %s", got)
	}
}

func TestApplicationReviewedNoEarlierThanNextStep(t *testing.T) {
	m := testModel(t)
	_, err := m.AddLender(lending.LenderConfig{
		BorrowerConfig: lending.BorrowerConfig{Name: "bank"},
		Options:        []lending.LoanOptionConfig{{Name: "standard", TermDays: 10}},
	})
	if err != nil {
		t.Fatalf("AddLender returned error: %v", err)
	}

	demanded := false
	borrower, err := m.AddBorrower(lending.BorrowerConfig{Name: "household"},
		func(b *lending.Borrower) money.Credit {
			if demanded {
				return m.Currency().Zero()
			}
			demanded = true
			return m.Currency().FromInt(100)
		})
	if err != nil {
		t.Fatalf("AddBorrower returned error: %v", err)
	}

	// Step 1: the borrower applies. Step 2: the lender reviews. Step 3:
	// the borrower responds to the reviewed offer.
	m.Run(2)
	if len(borrower.Loans()) != 0 {
		t.Fatalf("a loan cannot exist before the borrower's next turn after review")
	}
	m.Step()
	if len(borrower.Loans()) != 1 {
		t.Fatalf("expected the offer accepted on step 3, got %d loans", len(borrower.Loans()))
	}
}

func TestCountersResetEachStep(t *testing.T) {
	m := testModel(t)
	_, err := m.AddLender(lending.LenderConfig{
		BorrowerConfig: lending.BorrowerConfig{Name: "bank"},
		Options:        []lending.LoanOptionConfig{{Name: "standard", TermDays: 10}},
	})
	if err != nil {
		t.Fatalf("AddLender returned error: %v", err)
	}
	applied := false
	borrower, err := m.AddBorrower(lending.BorrowerConfig{Name: "household"},
		func(b *lending.Borrower) money.Credit {
			if applied {
				return m.Currency().Zero()
			}
			applied = true
			return m.Currency().FromInt(100)
		})
	if err != nil {
		t.Fatalf("AddBorrower returned error: %v", err)
	}

	m.Run(3)
	if !borrower.Counters().Credit("debt_incurred").Equal(m.Currency().FromInt(100)) {
		t.Fatalf("debt_incurred should reflect this step's acceptance, got %s",
			borrower.Counters().Credit("debt_incurred"))
	}
	m.Step()
	if !borrower.Counters().Credit("debt_incurred").IsZero() {
		t.Fatalf("transient counters must reset at the top of each step, got %s",
			borrower.Counters().Credit("debt_incurred"))
	}
	if borrower.Counters().Int("loans_incurred") != 1 {
		t.Fatalf("persistent counters must survive steps, got %d",
			borrower.Counters().Int("loans_incurred"))
	}
}

func TestConservationAcrossRun(t *testing.T) {
	m := testModel(t)
	lender, err := m.AddLender(lending.LenderConfig{
		BorrowerConfig: lending.BorrowerConfig{Name: "bank"},
		Options: []lending.LoanOptionConfig{
			{Name: "standard", TermDays: 10, MinInterestRate: 0.05},
		},
	})
	if err != nil {
		t.Fatalf("AddLender returned error: %v", err)
	}
	demanded := false
	borrower, err := m.AddBorrower(lending.BorrowerConfig{Name: "household"},
		func(b *lending.Borrower) money.Credit {
			if demanded {
				return m.Currency().Zero()
			}
			demanded = true
			return m.Currency().FromInt(100)
		})
	if err != nil {
		t.Fatalf("AddBorrower returned error: %v", err)
	}

	for i := 0; i < 12; i++ {
		m.Step()
		if !m.Conserved() {
			t.Fatalf("conservation violated at step %d", m.Steps())
		}
	}
	// Cover the interest so the final payment can clear.
	if err := borrower.Endow(m.Currency().FromInt(50)); err != nil {
		t.Fatalf("Endow returned error: %v", err)
	}
	m.Run(3)
	if !m.Conserved() {
		t.Fatalf("conservation violated after repayment")
	}
	if !m.OutstandingCredit().IsZero() {
		t.Fatalf("all credit should be redeemed, outstanding %s", m.OutstandingCredit())
	}
	if !lender.Counters().Credit("interest_collected").Equal(m.Currency().FromInt(50)) {
		t.Fatalf("expected 50 interest collected, got %s", lender.Counters().Credit("interest_collected"))
	}
}

func TestSnapshot(t *testing.T) {
	m := testModel(t)
	if _, err := m.AddLender(lending.LenderConfig{
		BorrowerConfig: lending.BorrowerConfig{Name: "bank"},
		Options:        []lending.LoanOptionConfig{{Name: "standard", TermDays: 10}},
	}); err != nil {
		t.Fatalf("AddLender returned error: %v", err)
	}
	if _, err := m.AddBorrower(lending.BorrowerConfig{Name: "household"}, nil); err != nil {
		t.Fatalf("AddBorrower returned error: %v", err)
	}
	m.Step()
	snap := m.Snapshot()
	if snap.Step != 1 || snap.Agents != 2 || !snap.Conserved {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
