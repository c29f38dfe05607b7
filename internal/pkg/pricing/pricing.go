package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andresvl/aulaviva/app/models"
)

// ErrUnsupportedCountry is returned when no price point exists for a country.
var ErrUnsupportedCountry = errors.New("unsupported country")

// ErrUnknownPlan is returned for plan names outside the catalog.
var ErrUnknownPlan = errors.New("unknown plan")

// DefaultCountry is used when neither an override nor a GeoIP hit is available.
const DefaultCountry = "CO"

// PlanSpec is the in-code source of truth for a plan. The plans table is
// seeded from this catalog at startup; request handlers only ever read it.
type PlanSpec struct {
	Name        string
	DisplayName string
	Description string
	Features    []string
}

// PricePoint is the resolved price for one (plan, country) pair. Amounts are
// minor currency units (COP and friends included).
type PricePoint struct {
	Currency  string `json:"currency"`
	Monthly   int64  `json:"monthly"`
	Quarterly int64  `json:"quarterly"`
}

var Catalog = []PlanSpec{
	{
		Name:        models.PlanGratis,
		DisplayName: "Plan Gratis",
		Description: "Acceso a lecciones de muestra y al foro en modo lectura.",
		Features:    []string{"lecciones de muestra", "foro (solo lectura)"},
	},
	{
		Name:        models.PlanBasico,
		DisplayName: "Plan Básico",
		Description: "Todos los cursos básicos y participación en el foro.",
		Features:    []string{"cursos básicos", "foro completo", "soporte por correo"},
	},
	{
		Name:        models.PlanPremium,
		DisplayName: "Plan Premium",
		Description: "Catálogo completo, sesiones en vivo y soporte prioritario.",
		Features:    []string{"catálogo completo", "sesiones en vivo", "soporte prioritario"},
	},
}

// prices[plan][country]. Countries without an entry are unsupported and must
// be rejected, not silently defaulted.
var prices = map[string]map[string]PricePoint{
	models.PlanBasico: {
		"CO": {Currency: "COP", Monthly: 3_990_000, Quarterly: 9_990_000},
		"MX": {Currency: "MXN", Monthly: 17_900, Quarterly: 44_900},
		"US": {Currency: "USD", Monthly: 999, Quarterly: 2_499},
		"EC": {Currency: "USD", Monthly: 999, Quarterly: 2_499},
		"ES": {Currency: "EUR", Monthly: 899, Quarterly: 2_299},
		"PE": {Currency: "PEN", Monthly: 3_490, Quarterly: 8_990},
		"AR": {Currency: "ARS", Monthly: 990_000, Quarterly: 2_490_000},
	},
	models.PlanPremium: {
		"CO": {Currency: "COP", Monthly: 7_990_000, Quarterly: 19_990_000},
		"MX": {Currency: "MXN", Monthly: 34_900, Quarterly: 89_900},
		"US": {Currency: "USD", Monthly: 1_999, Quarterly: 4_999},
		"EC": {Currency: "USD", Monthly: 1_999, Quarterly: 4_999},
		"ES": {Currency: "EUR", Monthly: 1_799, Quarterly: 4_499},
		"PE": {Currency: "PEN", Monthly: 6_990, Quarterly: 17_990},
		"AR": {Currency: "ARS", Monthly: 1_990_000, Quarterly: 4_990_000},
	},
}

// FindPlanSpec returns the catalog entry for a plan name.
func FindPlanSpec(name string) (*PlanSpec, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i := range Catalog {
		if Catalog[i].Name == n {
			return &Catalog[i], nil
		}
	}
	return nil, ErrUnknownPlan
}

// SupportedCountries lists the countries with a price table entry.
func SupportedCountries() []string {
	out := make([]string, 0, len(prices[models.PlanBasico]))
	for c := range prices[models.PlanBasico] {
		out = append(out, c)
	}
	return out
}

// Resolve maps (country, plan) to a currency and the two price points.
// The free plan resolves to zero amounts in the country's currency (COP for
// unsupported countries, since nothing is ever charged).
func Resolve(countryCode, planName string) (*PricePoint, error) {
	plan, err := FindPlanSpec(planName)
	if err != nil {
		return nil, err
	}
	country := strings.ToUpper(strings.TrimSpace(countryCode))
	if country == "" {
		country = DefaultCountry
	}

	if plan.Name == models.PlanGratis {
		currency := "COP"
		if pp, ok := prices[models.PlanBasico][country]; ok {
			currency = pp.Currency
		}
		return &PricePoint{Currency: currency}, nil
	}

	table, ok := prices[plan.Name]
	if !ok {
		return nil, ErrUnknownPlan
	}
	pp, ok := table[country]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCountry, country)
	}
	return &pp, nil
}

// AmountFor picks the price point for a billing cycle.
func (p *PricePoint) AmountFor(cycle string) int64 {
	if cycle == models.BillingCycleQuarterly {
		return p.Quarterly
	}
	return p.Monthly
}

// FormatAmount renders a minor-unit amount for display, e.g. "39900.00 COP".
func FormatAmount(amount int64, currency string) string {
	return fmt.Sprintf("%.2f %s", float64(amount)/100, strings.ToUpper(currency))
}
