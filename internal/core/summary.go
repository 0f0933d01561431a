package core

import (
	"fmt"
	"time"
)

// AccountSummary aggregates the whole ledger.
type AccountSummary struct {
	TotalBalance     float64 `json:"total_balance"`
	TotalIncome      float64 `json:"total_income"`
	TotalExpense     float64 `json:"total_expense"`
	TransactionCount int     `json:"transaction_count"`
}

// MonthlySummary aggregates a single calendar month. TotalExpense is a
// positive magnitude; ByCategory holds the signed net per category.
type MonthlySummary struct {
	Month        string             `json:"month"` // YYYY-MM
	TotalIncome  float64            `json:"total_income"`
	TotalExpense float64            `json:"total_expense"`
	Net          float64            `json:"net"`
	ByCategory   map[string]float64 `json:"by_category"`
}

// MonthKey formats a year+month pair as YYYY-MM.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// Summarize computes the account-wide summary over the given transactions.
func Summarize(transactions []Transaction) AccountSummary {
	s := AccountSummary{TransactionCount: len(transactions)}
	for _, t := range transactions {
		s.TotalBalance += t.Amount
		if t.IsIncome() {
			s.TotalIncome += t.Amount
		} else {
			s.TotalExpense += -t.Amount
		}
	}
	return s
}

// SummarizeMonth partitions the given transactions to the UTC calendar month
// and aggregates totals and per-category nets.
func SummarizeMonth(transactions []Transaction, year, month int) MonthlySummary {
	s := MonthlySummary{
		Month:      MonthKey(year, month),
		ByCategory: make(map[string]float64),
	}
	for _, t := range transactions {
		ts := t.Timestamp.UTC()
		if ts.Year() != year || ts.Month() != time.Month(month) {
			continue
		}
		if t.IsIncome() {
			s.TotalIncome += t.Amount
		} else {
			s.TotalExpense += -t.Amount
		}
		s.ByCategory[t.Category] += t.Amount
	}
	s.Net = s.TotalIncome - s.TotalExpense
	return s
}
