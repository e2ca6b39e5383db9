// Package parser turns free-text financial statements into validated,
// structured transactions via a hosted language model.
package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spendtext/spendtext/internal/llm"
	"github.com/spendtext/spendtext/internal/logger"
)

// Decision is the entitlement collaborator's answer to "may this user
// create at least one more transaction this period".
type Decision struct {
	Allowed   bool
	Limit     int // transactions allowed per period; 0 means unlimited
	Remaining int
}

// EntitlementChecker is the external billing collaborator. The pipeline
// consumes its boolean decision; it never computes entitlements itself.
type EntitlementChecker interface {
	Check(ctx context.Context, userID string) (Decision, error)
}

// Parser sequences the pipeline: entitlement check, sanitize, prompt,
// model invocation, extraction, validation, category normalization.
// Each Parse call is one attempt with no internal retries; resubmission
// is a brand-new run with no memory of the previous one.
type Parser struct {
	chat            llm.ChatClient
	entitlements    EntitlementChecker
	defaultCurrency string
	now             func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithDefaultCurrency overrides the fallback currency applied when the
// request carries none.
func WithDefaultCurrency(currency string) Option {
	return func(p *Parser) { p.defaultCurrency = currency }
}

// WithClock overrides the wall clock. Used by tests to pin the current
// date.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// New creates a Parser over the given model client and entitlement
// collaborator.
func New(chat llm.ChatClient, entitlements EntitlementChecker, opts ...Option) *Parser {
	p := &Parser{
		chat:            chat,
		entitlements:    entitlements,
		defaultCurrency: "USD",
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse runs the full pipeline for one request. On success it returns
// 1..10 transactions in the order the model reported them, categories
// already normalized onto the closed taxonomy. On failure it returns
// exactly one of the four typed signals: LimitReachedError,
// ErrModelUnavailable, MalformedOutputError or ValidationError.
func (p *Parser) Parse(ctx context.Context, req ParseRequest) (*ParseResult, error) {
	log := logger.FromContext(ctx)

	// Entitlement gate runs before anything touches a model backend,
	// so a denied request never advances the rotation cursor.
	decision, err := p.entitlements.Check(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("entitlement check: %w", err)
	}
	if !decision.Allowed {
		log.Info().Str("user_id", req.UserID).Int("limit", decision.Limit).Msg("Parse denied by entitlement limit")
		return nil, &LimitReachedError{Limit: decision.Limit}
	}

	// Canonicalize the effective currency before it reaches the prompt
	// or the validator's default: anything other than a 3-letter code
	// falls back to the configured default.
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !currencyPattern.MatchString(currency) {
		currency = p.defaultCurrency
	}

	sanitized := SanitizeInput(req.Input)
	now := p.now()
	prompt := BuildSystemPrompt(BuildPromptContext(now, currency))

	raw, err := p.chat.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: prompt},
		{Role: llm.RoleUser, Content: sanitized},
	})
	if err != nil {
		log.Warn().Err(err).Str("user_id", req.UserID).Msg("Model invocation failed")
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	entries, err := ExtractResponse(raw)
	if err != nil {
		log.Warn().Err(err).Str("user_id", req.UserID).Msg("Model output extraction failed")
		return nil, err
	}

	validator := &Validator{DefaultCurrency: currency, CurrentDate: now}
	txs, err := validator.ValidateAll(entries)
	if err != nil {
		log.Warn().Err(err).Str("user_id", req.UserID).Msg("Model output failed schema validation")
		return nil, err
	}

	for i := range txs {
		txs[i].Category = NormalizeCategory(txs[i].Category)
	}

	log.Info().Str("user_id", req.UserID).Int("transactions", len(txs)).Msg("Parse completed")
	return &ParseResult{Transactions: txs}, nil
}
