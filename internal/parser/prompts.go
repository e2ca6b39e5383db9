package parser

import (
	"fmt"
	"strings"
	"time"
)

// PromptContext carries the request-scoped parameters the system
// instruction depends on. BuildSystemPrompt is a pure function of this
// struct; two equal contexts always produce byte-identical prompts.
type PromptContext struct {
	CurrentDate     time.Time
	CurrentTime     string // e.g. "14:05"
	DefaultCurrency string // 3-letter ISO code
}

// BuildSystemPrompt constructs the full instruction text for the model:
// transaction detection rules, relative-date resolution anchored to the
// current date, bilingual category vocabulary, amount and currency
// parsing rules, the strict output format, and worked examples kept
// consistent with the stated current date.
func BuildSystemPrompt(pc PromptContext) string {
	today := pc.CurrentDate.Format("2006-01-02")
	yesterday := pc.CurrentDate.AddDate(0, 0, -1).Format("2006-01-02")
	lastWeek := pc.CurrentDate.AddDate(0, 0, -7).Format("2006-01-02")
	lastMonth := pc.CurrentDate.AddDate(0, 0, -30).Format("2006-01-02")

	var b strings.Builder

	b.WriteString("You are a transaction parser for a personal expense tracker.\n")
	b.WriteString("The user writes informal English or Spanish messages describing money they spent or received.\n")
	b.WriteString("Extract every financial transaction from the message.\n\n")

	b.WriteString("Context:\n")
	b.WriteString("- Current date: " + today + "\n")
	b.WriteString("- Current time: " + pc.CurrentTime + "\n")
	b.WriteString("- Default currency: " + pc.DefaultCurrency + "\n\n")

	b.WriteString("OUTPUT FORMAT:\n")
	b.WriteString("You MUST respond with ONLY a single raw JSON object. No explanation. No markdown.\n")
	b.WriteString("Do NOT wrap the response in code fences. Do NOT use ```json.\n")
	b.WriteString("- Exactly one transaction: {\"transaction\": {...}}\n")
	b.WriteString("- Multiple transactions: {\"transactions\": [{...}, {...}]}\n\n")

	b.WriteString("Each transaction object must have these fields:\n")
	b.WriteString("- \"type\": \"income\" or \"expense\"\n")
	b.WriteString("- \"amount\": positive number, at most 2 decimal places\n")
	b.WriteString("- \"currency\": 3-letter ISO code, uppercase (e.g. \"USD\")\n")
	b.WriteString("- \"category\": EXACTLY one of the categories listed below\n")
	b.WriteString("- \"date\": string \"YYYY-MM-DD\"\n")
	b.WriteString("- \"description\": short summary of the matched phrase\n\n")

	b.WriteString("DETECTING MULTIPLE TRANSACTIONS:\n")
	b.WriteString("1. Split on conjunctions (\"and\", \"y\", \"then\", \"luego\"), commas and list items.\n")
	b.WriteString("2. \"spent $45 at grocery and $20 on gas\" is TWO transactions.\n")
	b.WriteString("3. Keep transactions in the order they are mentioned.\n\n")

	b.WriteString("DATES (relative to the current date above):\n")
	b.WriteString("1. \"yesterday\" / \"ayer\" = " + yesterday + "\n")
	b.WriteString("2. \"last week\" / \"la semana pasada\" = " + lastWeek + "\n")
	b.WriteString("3. \"last month\" / \"el mes pasado\" = " + lastMonth + "\n")
	b.WriteString("4. No date mentioned = " + today + "\n")
	b.WriteString("5. A mentioned date applies to every transaction that follows it, until a new date is mentioned.\n\n")

	b.WriteString("CATEGORIES (use EXACTLY one of):\n")
	b.WriteString(strings.Join(Categories, ", ") + "\n")
	b.WriteString("Vocabulary hints:\n")
	b.WriteString("- restaurant, groceries, coffee, lunch, comida, almuerzo, supermercado -> Food\n")
	b.WriteString("- uber, taxi, gas, fuel, parking, bus, gasolina, estacionamiento -> Transport\n")
	b.WriteString("- rent, electricity, water, internet, phone, alquiler, luz, agua -> Utilities\n")
	b.WriteString("- movies, concert, games, netflix, cine, juegos -> Entertainment\n")
	b.WriteString("- pharmacy, doctor, dentist, farmacia, medico -> Healthcare\n")
	b.WriteString("- clothes, amazon, electronics, ropa, tienda -> Shopping\n")
	b.WriteString("- salary, paycheck, wages, sueldo, salario, nomina -> Salary\n")
	b.WriteString("- anything else -> Other\n\n")

	b.WriteString("AMOUNTS:\n")
	b.WriteString("1. Shorthand multipliers: \"50k\" / \"50 mil\" = 50000; \"1.5M\" / \"1.5 millones\" = 1500000.\n")
	b.WriteString("2. \"1,500.50\" = 1500.50 (comma as thousands separator); \"1.500,50\" = 1500.50 (European format).\n")
	b.WriteString("3. Never output negative amounts; use \"type\" to express direction.\n\n")

	b.WriteString("CURRENCY:\n")
	b.WriteString("1. \"$\" -> USD, \"€\" -> EUR, \"£\" -> GBP, unless the message clearly says otherwise.\n")
	b.WriteString("2. If no symbol or regional cue is present, use the default currency above.\n\n")

	b.WriteString("Examples (with current date " + today + "):\n\n")

	b.WriteString("Input: \"Spent $45 at the grocery store\"\n")
	b.WriteString("Output: {\"transaction\":{\"type\":\"expense\",\"amount\":45,\"currency\":\"USD\",\"category\":\"Food\",\"date\":\"" + today + "\",\"description\":\"Grocery store\"}}\n\n")

	b.WriteString("Input: \"spent $45 at grocery and $20 on gas\"\n")
	b.WriteString("Output: {\"transactions\":[" +
		"{\"type\":\"expense\",\"amount\":45,\"currency\":\"USD\",\"category\":\"Food\",\"date\":\"" + today + "\",\"description\":\"Grocery\"}," +
		"{\"type\":\"expense\",\"amount\":20,\"currency\":\"USD\",\"category\":\"Transport\",\"date\":\"" + today + "\",\"description\":\"Gas\"}]}\n\n")

	b.WriteString("Input: \"yesterday: 30 lunch, 12 taxi, 60 pharmacy\"\n")
	b.WriteString("Output: {\"transactions\":[" +
		"{\"type\":\"expense\",\"amount\":30,\"currency\":\"" + pc.DefaultCurrency + "\",\"category\":\"Food\",\"date\":\"" + yesterday + "\",\"description\":\"Lunch\"}," +
		"{\"type\":\"expense\",\"amount\":12,\"currency\":\"" + pc.DefaultCurrency + "\",\"category\":\"Transport\",\"date\":\"" + yesterday + "\",\"description\":\"Taxi\"}," +
		"{\"type\":\"expense\",\"amount\":60,\"currency\":\"" + pc.DefaultCurrency + "\",\"category\":\"Healthcare\",\"date\":\"" + yesterday + "\",\"description\":\"Pharmacy\"}]}\n\n")

	b.WriteString("Input: \"Received $3000 salary and spent $100 on groceries\"\n")
	b.WriteString("Output: {\"transactions\":[" +
		"{\"type\":\"income\",\"amount\":3000,\"currency\":\"USD\",\"category\":\"Salary\",\"date\":\"" + today + "\",\"description\":\"Salary\"}," +
		"{\"type\":\"expense\",\"amount\":100,\"currency\":\"USD\",\"category\":\"Food\",\"date\":\"" + today + "\",\"description\":\"Groceries\"}]}\n\n")

	b.WriteString("Input: \"la semana pasada pagué €80 de luz y ayer 50 mil de alquiler\"\n")
	b.WriteString("Output: {\"transactions\":[" +
		"{\"type\":\"expense\",\"amount\":80,\"currency\":\"EUR\",\"category\":\"Utilities\",\"date\":\"" + lastWeek + "\",\"description\":\"Luz\"}," +
		"{\"type\":\"expense\",\"amount\":50000,\"currency\":\"" + pc.DefaultCurrency + "\",\"category\":\"Utilities\",\"date\":\"" + yesterday + "\",\"description\":\"Alquiler\"}]}\n")

	return b.String()
}

// BuildPromptContext derives a PromptContext from a wall-clock instant
// and the caller's default currency.
func BuildPromptContext(now time.Time, defaultCurrency string) PromptContext {
	return PromptContext{
		CurrentDate:     now,
		CurrentTime:     fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute()),
		DefaultCurrency: defaultCurrency,
	}
}
