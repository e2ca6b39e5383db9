package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/spendtext/spendtext/internal/api/middleware"
	"github.com/spendtext/spendtext/internal/parser"
	"github.com/spendtext/spendtext/internal/store"
)

const (
	minInputLength = 1
	maxInputLength = 1000
)

// TransactionParser runs the natural-language parsing pipeline.
type TransactionParser interface {
	Parse(ctx context.Context, req parser.ParseRequest) (*parser.ParseResult, error)
}

// TransactionStore persists and queries confirmed transactions.
type TransactionStore interface {
	InsertTransactions(ctx context.Context, userID string, txs []parser.Transaction) ([]store.Transaction, error)
	ListByUser(ctx context.Context, userID string, since time.Time) ([]store.Transaction, error)
	Update(ctx context.Context, userID, transactionID string, tx parser.Transaction) (store.Transaction, error)
	Delete(ctx context.Context, userID, transactionID string) error
}

// Entitlements exposes the plan-derived history window and usage cache
// invalidation.
type Entitlements interface {
	HistorySince(ctx context.Context, userID string) (time.Time, error)
	Invalidate(userID string)
}

// ParseHandler handles POST /api/parse.
type ParseHandler struct {
	parser TransactionParser
	policy *bluemonday.Policy
	log    zerolog.Logger
}

// NewParseHandler creates a new parse handler.
func NewParseHandler(p TransactionParser, log zerolog.Logger) *ParseHandler {
	return &ParseHandler{
		parser: p,
		policy: bluemonday.StrictPolicy(),
		log:    log,
	}
}

// Parse handles POST /api/parse
func (h *ParseHandler) Parse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req struct {
		Input    string `json:"input"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	input := cleanInput(h.policy, req.Input)
	if n := utf8.RuneCountInString(input); n < minInputLength || n > maxInputLength {
		middleware.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "input must be between 1 and 1000 characters")
		return
	}

	result, err := h.parser.Parse(ctx, parser.ParseRequest{
		UserID:   userID,
		Input:    input,
		Currency: req.Currency,
	})
	if err != nil {
		h.writeParseError(w, userID, err)
		return
	}

	h.log.Info().
		Str("user_id", userID).
		Int("transactions", len(result.Transactions)).
		Msg("Parse completed")

	// A single transaction keeps the singular envelope so clients can
	// skip the confirmation list view.
	var response interface{}
	if len(result.Transactions) == 1 {
		response = map[string]interface{}{"transaction": result.Transactions[0]}
	} else {
		response = map[string]interface{}{"transactions": result.Transactions}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"response": response})
}

func (h *ParseHandler) writeParseError(w http.ResponseWriter, userID string, err error) {
	var limitErr *parser.LimitReachedError
	if errors.As(err, &limitErr) {
		h.log.Warn().Str("user_id", userID).Int("limit", limitErr.Limit).Msg("Monthly parse limit reached")
		middleware.WriteJSON(w, http.StatusForbidden, map[string]middleware.ErrorBody{
			"error": {Code: string(parser.CodeLimitReached), Message: limitErr.Error(), Limit: limitErr.Limit},
		})
		return
	}

	code := parser.CodeOf(err)
	switch code {
	case parser.CodeMalformedOutput, parser.CodeValidationError:
		h.log.Warn().Str("user_id", userID).Err(err).Msg("Model output rejected")
		middleware.WriteError(w, http.StatusUnprocessableEntity, string(code), err.Error())
	case parser.CodeModelUnavailable:
		h.log.Error().Str("user_id", userID).Err(err).Msg("Model call failed")
		middleware.WriteError(w, http.StatusBadGateway, string(code), "Transaction parsing is temporarily unavailable")
	default:
		h.log.Error().Str("user_id", userID).Err(err).Msg("Parse failed")
		middleware.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
	}
}

// cleanInput strips any HTML and unprintable characters before the
// text reaches the pipeline.
func cleanInput(policy *bluemonday.Policy, text string) string {
	sanitized := policy.Sanitize(text)
	sanitized = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			return r
		}
		return -1
	}, sanitized)
	return strings.TrimSpace(sanitized)
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	store        TransactionStore
	entitlements Entitlements
	log          zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(s TransactionStore, e Entitlements, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		store:        s,
		entitlements: e,
		log:          log,
	}
}

// List handles GET /api/transactions
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	since, err := h.entitlements.HistorySince(ctx, userID)
	if err != nil {
		h.log.Error().Str("user_id", userID).Err(err).Msg("Failed to resolve history window")
		middleware.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to list transactions")
		return
	}

	transactions, err := h.store.ListByUser(ctx, userID, since)
	if err != nil {
		h.log.Error().Str("user_id", userID).Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to list transactions")
		return
	}

	if transactions == nil {
		transactions = []store.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// Create handles POST /api/transactions. The client sends back the
// transactions it confirmed from a parse result.
func (h *TransactionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var req struct {
		Transactions []parser.Transaction `json:"transactions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}
	if len(req.Transactions) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "transactions are required")
		return
	}

	saved, err := h.store.InsertTransactions(ctx, userID, req.Transactions)
	if err != nil {
		h.log.Error().Str("user_id", userID).Err(err).Msg("Failed to save transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "INTERNAL", "Failed to save transactions")
		return
	}

	h.entitlements.Invalidate(userID)
	h.log.Info().Str("user_id", userID).Int("count", len(saved)).Msg("Transactions saved")

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"transactions": saved,
		"count":        len(saved),
	})
}

// Update handles PUT /api/transactions/{id}. The client sends the
// corrected transaction after editing a parse result.
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var tx parser.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body")
		return
	}

	updated, err := h.store.Update(ctx, userID, transactionID, tx)
	if err != nil {
		h.log.Warn().Str("user_id", userID).Str("transaction_id", transactionID).Err(err).Msg("Failed to update transaction")
		middleware.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Transaction not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	if err := h.store.Delete(ctx, userID, transactionID); err != nil {
		h.log.Warn().Str("user_id", userID).Str("transaction_id", transactionID).Err(err).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Transaction not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// CategoriesHandler handles category-related endpoints.
type CategoriesHandler struct{}

// ListCategories handles GET /api/categories
func (h *CategoriesHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": parser.Categories,
		"count":      len(parser.Categories),
	})
}

// HealthHandler handles GET /health
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
