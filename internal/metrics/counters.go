package metrics

import (
	"errors"
	"fmt"
	"sort"

	"econsim/internal/money"
)

var (
	ErrDuplicateCounter = errors.New("counter already registered")
	ErrUnknownCounter   = errors.New("unknown counter")
)

type intCounter struct {
	value      int64
	persistent bool
}

type creditCounter struct {
	value      money.Credit
	currency   *money.Currency
	persistent bool
}

// Counters is the reporting channel of an agent: named integer and credit
// tallies. Transient counters reset at the start of every step, persistent
// counters accumulate for the life of the simulation.
type Counters struct {
	ints    map[string]*intCounter
	credits map[string]*creditCounter
}

func NewCounters() *Counters {
	return &Counters{
		ints:    make(map[string]*intCounter),
		credits: make(map[string]*creditCounter),
	}
}

func (c *Counters) exists(name string) bool {
	_, ok := c.ints[name]
	if !ok {
		_, ok = c.credits[name]
	}
	return ok
}

func (c *Counters) AddInt(persistent bool, names ...string) error {
	for _, name := range names {
		if c.exists(name) {
			return fmt.Errorf("%w: %q", ErrDuplicateCounter, name)
		}
		c.ints[name] = &intCounter{persistent: persistent}
	}
	return nil
}

func (c *Counters) AddCredit(currency *money.Currency, persistent bool, names ...string) error {
	if currency == nil {
		return errors.New("credit counter needs a currency")
	}
	for _, name := range names {
		if c.exists(name) {
			return fmt.Errorf("%w: %q", ErrDuplicateCounter, name)
		}
		c.credits[name] = &creditCounter{
			value:      currency.Zero(),
			currency:   currency,
			persistent: persistent,
		}
	}
	return nil
}

func (c *Counters) Inc(name string) error {
	return c.IncBy(name, 1)
}

func (c *Counters) IncBy(name string, delta int64) error {
	counter, ok := c.ints[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCounter, name)
	}
	counter.value += delta
	return nil
}

func (c *Counters) IncCredit(name string, amount money.Credit) error {
	counter, ok := c.credits[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCounter, name)
	}
	total, err := counter.value.Add(amount)
	if err != nil {
		return err
	}
	counter.value = total
	return nil
}

func (c *Counters) Int(name string) int64 {
	if counter, ok := c.ints[name]; ok {
		return counter.value
	}
	return 0
}

func (c *Counters) Credit(name string) money.Credit {
	if counter, ok := c.credits[name]; ok {
		return counter.value
	}
	return money.Credit{}
}

// ResetTransient zeroes every non-persistent counter. The model calls it for
// each agent at the top of a step.
func (c *Counters) ResetTransient() {
	for _, counter := range c.ints {
		if !counter.persistent {
			counter.value = 0
		}
	}
	for _, counter := range c.credits {
		if !counter.persistent {
			counter.value = counter.currency.Zero()
		}
	}
}

// Snapshot renders every counter for reporting, keys sorted for stable
// output. Credit counters appear as their decimal amount string.
func (c *Counters) Snapshot() map[string]any {
	out := make(map[string]any, len(c.ints)+len(c.credits))
	for name, counter := range c.ints {
		out[name] = counter.value
	}
	for name, counter := range c.credits {
		out[name] = counter.value.Amount().String()
	}
	return out
}

// Names lists every registered counter in sorted order.
func (c *Counters) Names() []string {
	names := make([]string, 0, len(c.ints)+len(c.credits))
	for name := range c.ints {
		names = append(names, name)
	}
	for name := range c.credits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
