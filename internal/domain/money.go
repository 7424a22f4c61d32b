package domain

import "fmt"

// Money is an integer-cents amount with its ISO currency. Either side may be null upstream.
type Money struct {
	Amount   *int64  `json:"amount"`
	Currency *string `json:"currency"`
}

func NewMoney(amount int64, currency string) Money {
	return Money{Amount: &amount, Currency: &currency}
}

func (m Money) Valid() bool {
	return m.Amount != nil && m.Currency != nil
}

// Cents returns the amount, or zero when it is null.
func (m Money) Cents() int64 {
	if m.Amount == nil {
		return 0
	}
	return *m.Amount
}

// Text renders "<currency> <units>.<cents>", or "" when amount or currency is null.
func (m Money) Text() string {
	if !m.Valid() {
		return ""
	}
	amount := *m.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s %s%d.%02d", *m.Currency, sign, amount/100, amount%100)
}

func (m Money) String() string {
	return m.Text()
}
