package parser

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a parsed transaction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Transaction represents one structured financial event extracted from
// free text. Every field is populated; the validator never emits a
// partially filled transaction.
type Transaction struct {
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"` // 3-letter ISO 4217, uppercase
	Category    string          `json:"category"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
}

// ParseRequest is the inbound contract for one pipeline run.
type ParseRequest struct {
	UserID   string `json:"-"`
	Input    string `json:"input"`    // 1..1000 chars
	Currency string `json:"currency"` // optional, defaults to USD
}

// ParseResult is the pipeline's output envelope: a non-empty ordered
// list of transactions, in the order the model reported them.
type ParseResult struct {
	Transactions []Transaction `json:"transactions"`
}

// Date is a calendar date with no time component, serialized as
// YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate truncates t to its calendar date in UTC.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
