package parser

import "strings"

// The closed category taxonomy. Analytics and budget aggregation assume
// every stored transaction uses exactly one of these values.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryUtilities     = "Utilities"
	CategoryEntertainment = "Entertainment"
	CategoryHealthcare    = "Healthcare"
	CategoryShopping      = "Shopping"
	CategorySalary        = "Salary"
	CategoryOther         = "Other"
)

// Categories lists the taxonomy in display order.
var Categories = []string{
	CategoryFood,
	CategoryTransport,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryHealthcare,
	CategoryShopping,
	CategorySalary,
	CategoryOther,
}

// categorySynonyms maps lowercased free-form category strings onto the
// taxonomy. English and Spanish vocabulary, matching the hints given to
// the model in the system prompt.
var categorySynonyms = map[string]string{
	// Food
	"groceries":    CategoryFood,
	"grocery":      CategoryFood,
	"restaurant":   CategoryFood,
	"coffee":       CategoryFood,
	"lunch":        CategoryFood,
	"dinner":       CategoryFood,
	"breakfast":    CategoryFood,
	"comida":       CategoryFood,
	"almuerzo":     CategoryFood,
	"cena":         CategoryFood,
	"supermercado": CategoryFood,
	"restaurante":  CategoryFood,

	// Transport
	"uber":            CategoryTransport,
	"taxi":            CategoryTransport,
	"gas":             CategoryTransport,
	"fuel":            CategoryTransport,
	"parking":         CategoryTransport,
	"bus":             CategoryTransport,
	"metro":           CategoryTransport,
	"transportation":  CategoryTransport,
	"gasolina":        CategoryTransport,
	"estacionamiento": CategoryTransport,
	"transporte":      CategoryTransport,

	// Utilities
	"rent":        CategoryUtilities,
	"electricity": CategoryUtilities,
	"water":       CategoryUtilities,
	"internet":    CategoryUtilities,
	"phone":       CategoryUtilities,
	"bills":       CategoryUtilities,
	"alquiler":    CategoryUtilities,
	"renta":       CategoryUtilities,
	"luz":         CategoryUtilities,
	"agua":        CategoryUtilities,
	"servicios":   CategoryUtilities,

	// Entertainment
	"movies":          CategoryEntertainment,
	"cinema":          CategoryEntertainment,
	"concert":         CategoryEntertainment,
	"games":           CategoryEntertainment,
	"netflix":         CategoryEntertainment,
	"streaming":       CategoryEntertainment,
	"cine":            CategoryEntertainment,
	"juegos":          CategoryEntertainment,
	"entretenimiento": CategoryEntertainment,

	// Healthcare
	"pharmacy": CategoryHealthcare,
	"doctor":   CategoryHealthcare,
	"dentist":  CategoryHealthcare,
	"hospital": CategoryHealthcare,
	"medicine": CategoryHealthcare,
	"farmacia": CategoryHealthcare,
	"medico":   CategoryHealthcare,
	"salud":    CategoryHealthcare,

	// Shopping
	"clothes":     CategoryShopping,
	"clothing":    CategoryShopping,
	"amazon":      CategoryShopping,
	"electronics": CategoryShopping,
	"ropa":        CategoryShopping,
	"tienda":      CategoryShopping,
	"compras":     CategoryShopping,

	// Salary
	"paycheck": CategorySalary,
	"wages":    CategorySalary,
	"income":   CategorySalary,
	"sueldo":   CategorySalary,
	"salario":  CategorySalary,
	"nomina":   CategorySalary,
	"pago":     CategorySalary,

	// Prompt-adjacent names that are not taxonomy members.
	"education": CategoryOther,
}

// canonical maps lowercased taxonomy names back to their display form,
// so normalizing an already-normalized category is a no-op.
var canonical = func() map[string]string {
	m := make(map[string]string, len(Categories))
	for _, c := range Categories {
		m[strings.ToLower(c)] = c
	}
	return m
}()

// NormalizeCategory maps a free-form category string onto the closed
// taxonomy. Matching is case-insensitive; anything unrecognized resolves
// to Other. Idempotent: NormalizeCategory(NormalizeCategory(x)) ==
// NormalizeCategory(x) for all x.
func NormalizeCategory(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if name, ok := canonical[key]; ok {
		return name
	}
	if name, ok := categorySynonyms[key]; ok {
		return name
	}
	return CategoryOther
}
