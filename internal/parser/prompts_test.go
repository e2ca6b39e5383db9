package parser

import (
	"strings"
	"testing"
	"time"
)

func promptContext() PromptContext {
	return PromptContext{
		CurrentDate:     time.Date(2025, 1, 21, 0, 0, 0, 0, time.UTC),
		CurrentTime:     "14:30",
		DefaultCurrency: "USD",
	}
}

func TestBuildSystemPrompt_Deterministic(t *testing.T) {
	pc := promptContext()
	if BuildSystemPrompt(pc) != BuildSystemPrompt(pc) {
		t.Error("BuildSystemPrompt is not deterministic for equal contexts")
	}
}

func TestBuildSystemPrompt_RelativeDates(t *testing.T) {
	prompt := BuildSystemPrompt(promptContext())

	tests := []struct {
		name string
		want string
	}{
		{"yesterday", "2025-01-20"},
		{"last week", "2025-01-14"},
		{"last month", "2024-12-22"},
		{"current date", "2025-01-21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(prompt, tt.want) {
				t.Errorf("prompt missing resolved date %s for %s", tt.want, tt.name)
			}
		})
	}
}

func TestBuildSystemPrompt_Content(t *testing.T) {
	pc := promptContext()
	prompt := BuildSystemPrompt(pc)

	for _, category := range Categories {
		if !strings.Contains(prompt, category) {
			t.Errorf("prompt missing category %q", category)
		}
	}

	for _, fragment := range []string{
		"Default currency: USD",
		"Current time: 14:30",
		`{"transaction": {...}}`,
		`{"transactions": [{...}, {...}]}`,
		"50 mil",
		"1.5 millones",
		"la semana pasada",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing fragment %q", fragment)
		}
	}
}

func TestBuildSystemPrompt_ExamplesMatchDateRules(t *testing.T) {
	prompt := BuildSystemPrompt(promptContext())

	// The worked examples must stay consistent with the relative-date
	// rules: the yesterday example carries yesterday's resolved date.
	if !strings.Contains(prompt, `"date":"2025-01-20","description":"Lunch"`) {
		t.Error("yesterday example does not resolve to 2025-01-20")
	}
	if !strings.Contains(prompt, `"date":"2025-01-14","description":"Luz"`) {
		t.Error("last-week example does not resolve to 2025-01-14")
	}
	if !strings.Contains(prompt, `"amount":50000`) {
		t.Error("shorthand multiplier example missing expanded amount")
	}
}

func TestBuildPromptContext(t *testing.T) {
	now := time.Date(2025, 3, 5, 9, 7, 42, 0, time.UTC)
	pc := BuildPromptContext(now, "EUR")

	if pc.CurrentTime != "09:07" {
		t.Errorf("CurrentTime = %q, want 09:07", pc.CurrentTime)
	}
	if pc.DefaultCurrency != "EUR" {
		t.Errorf("DefaultCurrency = %q, want EUR", pc.DefaultCurrency)
	}
	if !pc.CurrentDate.Equal(now) {
		t.Errorf("CurrentDate = %v, want %v", pc.CurrentDate, now)
	}
}
