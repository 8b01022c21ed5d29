package core

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the on-disk and wire format of transaction dates.
const DateLayout = "2006-01-02"

const (
	Income  Kind = "Income"
	Expense Kind = "Expense"
)

type (
	// Kind is the direction of a cash movement. Amounts are always
	// positive; Kind alone decides whether money came in or went out.
	Kind string

	Transaction struct {
		ID          int64
		Date        string // YYYY-MM-DD
		Kind        Kind
		Category    string
		Description string
		Amount      float64
	}

	Budget struct {
		ID       int64
		Category string
		Amount   float64 // planned spending ceiling
	}
)

var (
	ErrEmptyDate     = errors.New("date is required")
	ErrInvalidDate   = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidKind   = errors.New("type must be Income or Expense")
	ErrEmptyCategory = errors.New("category is required")
	ErrInvalidAmount = errors.New("amount must be a positive number")
)

// CleanText trims surrounding whitespace and drops control characters other
// than tab and newlines. Every input surface runs free text through it so
// that " Food " and "Food" name the same category.
func CleanText(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// ParseKind accepts the canonical spelling and common lowercase variants.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	default:
		return "", ErrInvalidKind
	}
}

func (k Kind) String() string {
	return string(k)
}

// IsValid reports whether k is one of the two known kinds.
func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

// ValidateDate checks that s is a real calendar date in YYYY-MM-DD form.
func ValidateDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyDate
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// Validate runs the input checks the presentation surfaces apply before a
// transaction reaches storage. The store itself accepts anything.
func (t Transaction) Validate() error {
	if err := ValidateDate(t.Date); err != nil {
		return err
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !(t.Amount > 0) {
		return ErrInvalidAmount
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !(b.Amount > 0) {
		return ErrInvalidAmount
	}
	return nil
}

// IsValidationError reports whether err is one of the input validation
// sentinels above.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrEmptyDate, ErrInvalidDate, ErrInvalidKind,
		ErrEmptyCategory, ErrInvalidAmount,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
