package metrics

import (
	"errors"
	"testing"

	"econsim/internal/money"
)

func testCurrency(t *testing.T) *money.Currency {
	t.Helper()
	cur, err := money.NewCurrency(money.Spec{
		Code: "SIM", Symbol: "$", UnitName: "dollar", Precision: 2,
	})
	if err != nil {
		t.Fatalf("NewCurrency returned error: %v", err)
	}
	return cur
}

func TestDuplicateRegistration(t *testing.T) {
	c := NewCounters()
	if err := c.AddInt(false, "loans_created"); err != nil {
		t.Fatalf("AddInt returned error: %v", err)
	}
	if err := c.AddInt(true, "loans_created"); !errors.Is(err, ErrDuplicateCounter) {
		t.Fatalf("expected ErrDuplicateCounter, got %v", err)
	}
	if err := c.AddCredit(testCurrency(t), false, "loans_created"); !errors.Is(err, ErrDuplicateCounter) {
		t.Fatalf("expected ErrDuplicateCounter across kinds, got %v", err)
	}
}

func TestUnknownCounter(t *testing.T) {
	c := NewCounters()
	if err := c.Inc("missing"); !errors.Is(err, ErrUnknownCounter) {
		t.Fatalf("expected ErrUnknownCounter, got %v", err)
	}
	cur := testCurrency(t)
	if err := c.IncCredit("missing", cur.FromInt(1)); !errors.Is(err, ErrUnknownCounter) {
		t.Fatalf("expected ErrUnknownCounter, got %v", err)
	}
}

func TestTransientVsPersistentReset(t *testing.T) {
	cur := testCurrency(t)
	c := NewCounters()
	if err := c.AddInt(false, "debt_incurred"); err != nil {
		t.Fatalf("AddInt returned error: %v", err)
	}
	if err := c.AddInt(true, "loans_incurred"); err != nil {
		t.Fatalf("AddInt returned error: %v", err)
	}
	if err := c.AddCredit(cur, false, "credit_taken"); err != nil {
		t.Fatalf("AddCredit returned error: %v", err)
	}
	if err := c.AddCredit(cur, true, "credit_total"); err != nil {
		t.Fatalf("AddCredit returned error: %v", err)
	}

	_ = c.Inc("debt_incurred")
	_ = c.Inc("loans_incurred")
	_ = c.IncCredit("credit_taken", cur.FromInt(50))
	_ = c.IncCredit("credit_total", cur.FromInt(50))

	c.ResetTransient()

	if got := c.Int("debt_incurred"); got != 0 {
		t.Fatalf("transient int should reset, got %d", got)
	}
	if got := c.Int("loans_incurred"); got != 1 {
		t.Fatalf("persistent int should survive reset, got %d", got)
	}
	if !c.Credit("credit_taken").IsZero() {
		t.Fatalf("transient credit should reset, got %s", c.Credit("credit_taken").Amount())
	}
	if !c.Credit("credit_total").Equal(cur.FromInt(50)) {
		t.Fatalf("persistent credit should survive reset, got %s", c.Credit("credit_total").Amount())
	}
}

func TestIncCreditMismatch(t *testing.T) {
	c := NewCounters()
	cur := testCurrency(t)
	other, err := money.NewCurrency(money.Spec{Code: "ALT", Symbol: "#", UnitName: "mark", Precision: 2})
	if err != nil {
		t.Fatalf("NewCurrency returned error: %v", err)
	}
	if err := c.AddCredit(cur, false, "credit_taken"); err != nil {
		t.Fatalf("AddCredit returned error: %v", err)
	}
	if err := c.IncCredit("credit_taken", other.FromInt(1)); !errors.Is(err, money.ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	cur := testCurrency(t)
	c := NewCounters()
	_ = c.AddInt(false, "debt_incurred")
	_ = c.AddCredit(cur, false, "credit_taken")
	_ = c.IncBy("debt_incurred", 3)
	_ = c.IncCredit("credit_taken", cur.FromFloat(12.5))

	snap := c.Snapshot()
	if snap["debt_incurred"] != int64(3) {
		t.Fatalf("expected 3, got %v", snap["debt_incurred"])
	}
	if snap["credit_taken"] != "12.5" {
		t.Fatalf("expected 12.5, got %v", snap["credit_taken"])
	}
}
