package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spendtext/spendtext/internal/config"
	"github.com/spendtext/spendtext/internal/llm"
	"github.com/spendtext/spendtext/internal/logger"
	"github.com/spendtext/spendtext/internal/parser"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "parse":
		runParse()
	case "prompt":
		runPrompt()
	case "categories":
		runCategories()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("SpendText CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse       Parse a free-text transaction description")
	fmt.Println("  prompt      Print the system prompt that would be sent to the model")
	fmt.Println("  categories  List the supported categories")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// allowAll skips entitlement checks for local runs.
type allowAll struct{}

func (allowAll) Check(ctx context.Context, userID string) (parser.Decision, error) {
	return parser.Decision{Allowed: true, Remaining: -1}, nil
}

func runParse() {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	text := fs.String("text", "", "Transaction text to parse")
	currency := fs.String("currency", "", "Default currency (defaults to DEFAULT_CURRENCY)")
	fs.Parse(os.Args[2:])

	if *text == "" {
		fmt.Fprintln(os.Stderr, "Error: --text is required")
		os.Exit(1)
	}

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	pool := buildPool(ctx, cfg, log)

	defaultCurrency := cfg.DefaultCurrency
	if *currency != "" {
		defaultCurrency = *currency
	}

	p := parser.New(pool, allowAll{}, parser.WithDefaultCurrency(defaultCurrency))

	result, err := p.Parse(ctx, parser.ParseRequest{
		UserID: "cli",
		Input:  *text,
	})
	if err != nil {
		if code := parser.CodeOf(err); code != "" {
			log.Fatal().Str("code", string(code)).Err(err).Msg("Parse failed")
		}
		log.Fatal().Err(err).Msg("Parse failed")
	}

	out, _ := json.MarshalIndent(result.Transactions, "", "  ")
	fmt.Println(string(out))
}

func runPrompt() {
	fs := flag.NewFlagSet("prompt", flag.ExitOnError)
	currency := fs.String("currency", "USD", "Default currency for the prompt context")
	fs.Parse(os.Args[2:])

	pc := parser.BuildPromptContext(time.Now(), *currency)
	fmt.Println(parser.BuildSystemPrompt(pc))
}

func runCategories() {
	for _, category := range parser.Categories {
		fmt.Println(category)
	}
}

func buildPool(ctx context.Context, cfg config.Config, log zerolog.Logger) *llm.Pool {
	gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	backends := []llm.ChatClient{gemini}
	if cfg.OpenAIAPIKey != "" {
		backends = append(backends, llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel))
	}

	pool, err := llm.NewPool(llm.NewRoundRobin(), cfg.ModelTimeout, backends...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create model pool")
	}
	return pool
}
