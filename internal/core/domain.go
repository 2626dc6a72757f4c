package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const dateLayout = "2006-01-02"

// MaxNoteLength bounds Transaction.Note in characters.
const MaxNoteLength = 200

type (
	// Kind tells income from expense for categories and transactions.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Kind  Kind   `json:"kind"`
	}

	// Commodity is a purchasable good that can be itemized inside a transaction.
	Commodity struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		CategoryID string `json:"categoryId"`
	}

	Item struct {
		CommodityID string `json:"commodityId"`
		Quantity    int    `json:"quantity"`
		Amount      Money  `json:"amount"`
	}

	Transaction struct {
		ID         string `json:"id"`
		Kind       Kind   `json:"kind"`
		Date       Date   `json:"date"`
		CategoryID string `json:"categoryId"`
		Amount     Money  `json:"amount"`
		Note       string `json:"note,omitempty"`
		Items      []Item `json:"items,omitempty"`
	}

	// Budget is the spending ceiling for one month ("2025-01").
	Budget struct {
		ID     string `json:"id"`
		Month  string `json:"month"`
		Amount Money  `json:"amount"`
	}

	Profile struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Currency string `json:"currency"`
	}

	// Session is issued by the API after a successful PIN login.
	Session struct {
		ID        string    `json:"id"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid kind")
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrDescriptionLimit = errors.New("note too long (max 200 characters)")
)

// ResourceID identifies the category in cached lists.
func (c Category) ResourceID() string { return c.ID }

// ResourceID identifies the commodity in cached lists.
func (c Commodity) ResourceID() string { return c.ID }

// ResourceID identifies the transaction in cached lists.
func (t Transaction) ResourceID() string { return t.ID }

// ResourceID identifies the budget in cached lists.
func (b Budget) ResourceID() string { return b.ID }

// ResourceID identifies the profile in cached lists.
func (p Profile) ResourceID() string { return p.ID }

// ResourceID identifies the session in cached lists.
func (s Session) ResourceID() string { return s.ID }

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Expired reports whether the session is past its expiry at now.
// A zero ExpiresAt never expires.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Cents)
}

func (m *Money) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &m.Cents)
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if !c.Kind.Valid() {
		return ErrInvalidKind
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(t.Note) > MaxNoteLength {
		return ErrDescriptionLimit
	}
	for i, it := range t.Items {
		if it.Quantity < 1 {
			return fmt.Errorf("item %d: %w", i, ErrInvalidQuantity)
		}
		if err := it.Amount.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// ItemsTotal sums quantity × amount over the itemized commodities.
func (t Transaction) ItemsTotal() Money {
	var total int64
	for _, it := range t.Items {
		total += int64(it.Quantity) * it.Amount.Cents
	}
	return Money{Cents: total}
}
