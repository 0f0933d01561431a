package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  CategoryType = "income"
	Expense CategoryType = "expense"
)

type (
	CategoryType string

	// Transaction is a single ledger entry. Positive amounts are income,
	// negative amounts are expenses. The timestamp is immutable once the
	// transaction has been appended to the ledger.
	Transaction struct {
		ID          string    `json:"id"`
		Amount      float64   `json:"amount"`
		Category    string    `json:"category"`
		Description string    `json:"description"`
		Timestamp   time.Time `json:"timestamp"`
		Tags        []string  `json:"tags,omitempty"`
	}

	// Category is a named bucket for transactions. Categories are seeded at
	// first run and treated as static input afterwards.
	Category struct {
		Name string       `json:"name"`
		Type CategoryType `json:"type"`
		Icon string       `json:"icon,omitempty"`
	}
)

var (
	ErrZeroAmount    = errors.New("amount must be non-zero")
	ErrEmptyCategory = errors.New("empty category")
	ErrZeroTimestamp = errors.New("zero timestamp")
)

func (ct CategoryType) IsValid() bool {
	switch ct {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (t Transaction) Validate() error {
	if t.Amount == 0 {
		return ErrZeroAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Timestamp.IsZero() {
		return ErrZeroTimestamp
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

// IsIncome reports whether the transaction adds to the balance.
func (t Transaction) IsIncome() bool {
	return t.Amount > 0
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("empty category name")
	}
	if c.Type != "" && !c.Type.IsValid() {
		return errors.New("invalid category type")
	}
	return nil
}

// DefaultCategories returns the seed used when the category file is first
// created. The set matches the stock categories shipped with the service.
func DefaultCategories() []Category {
	return []Category{
		{Name: "food", Type: Expense, Icon: "🍔"},
		{Name: "transport", Type: Expense, Icon: "🚗"},
		{Name: "shopping", Type: Expense, Icon: "🛍️"},
		{Name: "entertainment", Type: Expense, Icon: "🎬"},
		{Name: "salary", Type: Income, Icon: "💼"},
		{Name: "bonus", Type: Income, Icon: "🎁"},
		{Name: "investment", Type: Income, Icon: "📈"},
	}
}
