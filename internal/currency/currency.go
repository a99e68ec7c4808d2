// Package currency resolves ISO currency codes to display metadata and
// formats prices.
package currency

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrUnknownCurrency is returned for codes missing from the table.
var ErrUnknownCurrency = errors.New("unknown currency")

// Currency describes how amounts in one currency are displayed.
type Currency struct {
	Code     string `mapstructure:"code" json:"code"`
	Symbol   string `mapstructure:"symbol" json:"symbol"`
	Decimals int    `mapstructure:"decimals" json:"decimals"`
}

// Format renders amount with the currency symbol and grouped digits.
func (c Currency) Format(amount decimal.Decimal) string {
	f, _ := amount.Round(int32(c.Decimals)).Float64()
	p := message.NewPrinter(language.English)
	s := p.Sprintf(fmt.Sprintf("%%.%df", c.Decimals), f)
	if c.Symbol == "" {
		return s + " " + c.Code
	}
	return c.Symbol + s
}

// Table is a fixed set of currencies keyed by code.
type Table struct {
	byCode map[string]Currency
}

// DefaultCurrencies is used when no table is configured.
var DefaultCurrencies = []Currency{
	{Code: "EUR", Symbol: "€", Decimals: 2},
	{Code: "USD", Symbol: "$", Decimals: 2},
	{Code: "GBP", Symbol: "£", Decimals: 2},
	{Code: "JPY", Symbol: "¥", Decimals: 0},
}

// NewTable builds a table. Codes are matched case insensitively; later
// entries override earlier ones.
func NewTable(list []Currency) *Table {
	t := &Table{byCode: make(map[string]Currency, len(list))}
	for _, c := range list {
		c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
		if c.Code == "" {
			continue
		}
		t.byCode[c.Code] = c
	}
	return t
}

// Lookup returns the currency for code.
func (t *Table) Lookup(code string) (Currency, bool) {
	if t == nil {
		return Currency{}, false
	}
	c, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return c, ok
}

// Currency returns the currency for code or ErrUnknownCurrency.
func (t *Table) Currency(_ context.Context, code string) (Currency, error) {
	c, ok := t.Lookup(code)
	if !ok {
		return Currency{}, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
	}
	return c, nil
}

// Codes lists the known codes in order.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.byCode))
	for code := range t.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
