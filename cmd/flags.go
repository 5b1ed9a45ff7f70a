package cmd

import (
	"flag"

	"github.com/shopspring/decimal"

	"github.com/lmazzei55/tradelog"
	"github.com/lmazzei55/tradelog/date"
)

// moneyFlag is a flag.Value for amounts. It remembers whether it was set, so
// that commands can tell a zero from a missing value.
type moneyFlag struct {
	value tradelog.Money
	set   bool
}

func (m *moneyFlag) String() string {
	if m == nil || !m.set {
		return ""
	}
	return m.value.Decimal().String()
}

func (m *moneyFlag) Set(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	m.value, m.set = tradelog.M(d), true
	return nil
}

// ptr returns the value, or nil when the flag was not given.
func (m *moneyFlag) ptr() *tradelog.Money {
	if !m.set {
		return nil
	}
	v := m.value
	return &v
}

type quantityFlag struct {
	value tradelog.Quantity
	set   bool
}

func (q *quantityFlag) String() string {
	if q == nil || !q.set {
		return ""
	}
	return q.value.String()
}

func (q *quantityFlag) Set(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	q.value, q.set = tradelog.Q(d), true
	return nil
}

func (q *quantityFlag) ptr() *tradelog.Quantity {
	if !q.set {
		return nil
	}
	v := q.value
	return &v
}

type dateFlag struct {
	value date.Date
	set   bool
}

func (d *dateFlag) String() string {
	if d == nil || !d.set {
		return ""
	}
	return d.value.String()
}

func (d *dateFlag) Set(s string) error {
	v, err := date.Parse(s)
	if err != nil {
		return err
	}
	d.value, d.set = v, true
	return nil
}

func (d *dateFlag) ptr() *date.Date {
	if !d.set {
		return nil
	}
	v := d.value
	return &v
}

// visited returns the names of the flags explicitly set on the command line.
func visited(f *flag.FlagSet) map[string]bool {
	m := map[string]bool{}
	f.Visit(func(fl *flag.Flag) { m[fl.Name] = true })
	return m
}
