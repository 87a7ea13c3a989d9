package shared

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places kept for currency amounts
const MoneyPlaces int32 = 2

// RoundMoney rounds an amount to currency precision
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// SumMoney adds amounts
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
