package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// MaxTransactionsPerParse bounds pathological model output. More
	// entries than this is a validation failure, never a silent
	// truncation.
	MaxTransactionsPerParse = 10

	maxCategoryLen    = 50
	maxDescriptionLen = 500
)

var (
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	minAmount = decimal.NewFromFloat(0.01)
)

// Validator checks the structurally-plausible JSON from the extractor
// against the strict transaction contract, applying deterministic
// coercions (numeric strings, currency casing, date defaulting). It is
// the single point that keeps malformed or adversarial model output
// away from persistence: every field is positively validated.
type Validator struct {
	DefaultCurrency string    // applied when the model omits currency
	CurrentDate     time.Time // applied when the model omits date
}

// ValidateAll validates and coerces the extracted entries. On failure it
// returns a ValidationError enumerating every violated field across all
// entries; it never returns a partial result.
func (v *Validator) ValidateAll(entries []interface{}) ([]Transaction, error) {
	verr := &ValidationError{}

	if len(entries) == 0 {
		verr.Fields = append(verr.Fields, FieldError{Field: "transactions", Message: "at least one transaction is required"})
		return nil, verr
	}
	if len(entries) > MaxTransactionsPerParse {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   "transactions",
			Message: fmt.Sprintf("got %d entries, maximum is %d", len(entries), MaxTransactionsPerParse),
		})
		return nil, verr
	}

	txs := make([]Transaction, 0, len(entries))
	for i, entry := range entries {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			verr.Fields = append(verr.Fields, FieldError{
				Field:   fieldName(i, ""),
				Message: fmt.Sprintf("entry is %T, want object", entry),
			})
			continue
		}
		tx := v.validateOne(i, obj, verr)
		txs = append(txs, tx)
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return txs, nil
}

func (v *Validator) validateOne(i int, obj map[string]interface{}, verr *ValidationError) Transaction {
	var tx Transaction

	fail := func(field, format string, args ...interface{}) {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   fieldName(i, field),
			Message: fmt.Sprintf(format, args...),
		})
	}

	// type
	switch typ := strings.ToLower(strings.TrimSpace(stringField(obj, "type"))); typ {
	case string(TypeIncome):
		tx.Type = TypeIncome
	case string(TypeExpense):
		tx.Type = TypeExpense
	case "":
		fail("type", "missing required field")
	default:
		fail("type", "got %q, want income or expense", typ)
	}

	// amount: numeric value or numeric-looking string
	amount, err := amountField(obj, "amount")
	switch {
	case err != nil:
		fail("amount", "%v", err)
	case amount.Round(2).LessThan(minAmount):
		fail("amount", "must be at least %s, got %s", minAmount, amount)
	default:
		tx.Amount = amount.Round(2)
	}

	// currency: default only when omitted; invalid-but-present is a
	// hard failure
	currency := strings.TrimSpace(stringField(obj, "currency"))
	if currency == "" {
		tx.Currency = v.DefaultCurrency
	} else {
		currency = strings.ToUpper(currency)
		if !currencyPattern.MatchString(currency) {
			fail("currency", "got %q, want a 3-letter ISO code", currency)
		} else {
			tx.Currency = currency
		}
	}

	// category: free-form here; taxonomy narrowing happens later
	// Length bounds count runes, not bytes: accented Spanish text must
	// not shrink the budget.
	category := strings.TrimSpace(stringField(obj, "category"))
	if category == "" || utf8.RuneCountInString(category) > maxCategoryLen {
		fail("category", "must be 1-%d characters", maxCategoryLen)
	} else {
		tx.Category = category
	}

	// date: exact YYYY-MM-DD, defaulting to the request's current date
	dateStr := strings.TrimSpace(stringField(obj, "date"))
	if dateStr == "" {
		tx.Date = NewDate(v.CurrentDate)
	} else if !datePattern.MatchString(dateStr) {
		fail("date", "got %q, want YYYY-MM-DD", dateStr)
	} else if d, err := ParseDate(dateStr); err != nil {
		fail("date", "invalid date %q: %v", dateStr, err)
	} else {
		tx.Date = d
	}

	// description
	description := strings.TrimSpace(stringField(obj, "description"))
	if description == "" || utf8.RuneCountInString(description) > maxDescriptionLen {
		fail("description", "must be 1-%d characters", maxDescriptionLen)
	} else {
		tx.Description = description
	}

	return tx
}

// stringField returns the string value of key, or "" when the key is
// absent, null, or not a string.
func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// amountField coerces the amount field into a positive decimal. It
// accepts JSON numbers and numeric-looking strings; everything else is
// an error.
func amountField(m map[string]interface{}, key string) (decimal.Decimal, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return decimal.Zero, fmt.Errorf("missing required field")
	}
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero, fmt.Errorf("got %q, want a number", val)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("got %T, want a number", v)
	}
}

func fieldName(i int, field string) string {
	if field == "" {
		return fmt.Sprintf("transactions[%d]", i)
	}
	return fmt.Sprintf("transactions[%d].%s", i, field)
}
