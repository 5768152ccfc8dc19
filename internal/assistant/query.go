package assistant

import "github.com/feitime/storefront/internal/models"

// Acidity band boundaries on the catalog's 1-5 acidity scale.
const (
	highAcidityMin   = 4
	lowAcidityMax    = 3
	mediumAcidityMin = 3
	mediumAcidityMax = 4
)

// BudgetHeadroom is added on top of an explicit shopper budget so a bean
// slightly over budget still shows up.
const BudgetHeadroom = 100

// RelaxPriceIncrement widens the price ceiling when the primary search
// comes back empty.
const RelaxPriceIncrement = 200

// categoryTokens maps extracted flavor categories to the catalog's
// capitalized category tokens.
var categoryTokens = map[models.FlavorCategory]string{
	models.FlavorFruity: "Fruity",
	models.FlavorFloral: "Floral",
	models.FlavorNutty:  "Nutty",
	models.FlavorBold:   "Bold",
}

// sortKeys maps special sort modes to catalog sort keys.
var sortKeys = map[models.SpecialSort]string{
	models.SortMostExpensive: models.SortKeyPriceDesc,
	models.SortCheapest:      models.SortKeyPriceAsc,
	models.SortMostPopular:   models.SortKeyPopularityDesc,
}

// BuildQuery maps Preferences to a catalog search specification. The three
// search modes form a total precedence order and are mutually exclusive:
//
//  1. special sort: sort key plus a fixed limit, every other filter dropped
//  2. specific name: substring match, unbounded, every other filter dropped
//  3. composed filters from the remaining preference fields
//
// Modes never merge; a special sort or specific name silently discards any
// other extracted preference.
func BuildQuery(prefs models.Preferences) models.SearchQuery {
	if prefs.SpecialSort != nil {
		return models.SearchQuery{
			SortKey: sortKeys[*prefs.SpecialSort],
			Limit:   models.DefaultSearchLimit,
		}
	}

	if prefs.SpecificName != nil {
		return models.SearchQuery{
			NameSubstring: *prefs.SpecificName,
			Limit:         0, // unbounded
		}
	}

	query := models.SearchQuery{Limit: models.DefaultSearchLimit}

	if prefs.FlavorCategory != nil {
		query.Category = categoryTokens[*prefs.FlavorCategory]
	}

	if prefs.AcidityBand != nil {
		switch *prefs.AcidityBand {
		case models.AcidityHigh:
			min := highAcidityMin
			query.MinAcidity = &min
		case models.AcidityLow:
			max := lowAcidityMax
			query.MaxAcidity = &max
		case models.AcidityMedium:
			min, max := mediumAcidityMin, mediumAcidityMax
			query.MinAcidity = &min
			query.MaxAcidity = &max
		}
	}

	if prefs.Price != nil {
		if prefs.Price.Budget != nil {
			max := *prefs.Price.Budget + BudgetHeadroom
			query.MaxPrice = &max
		} else {
			if prefs.Price.Min != nil {
				min := *prefs.Price.Min
				query.MinPrice = &min
			}
			if prefs.Price.Max != nil {
				max := *prefs.Price.Max
				query.MaxPrice = &max
			}
		}
	}

	if prefs.Roast != nil {
		query.Roast = string(*prefs.Roast)
	}
	if prefs.Origin != nil {
		query.Origin = *prefs.Origin
	}

	return query
}

// RelaxQuery widens a query after an empty result: acidity bounds are
// dropped and an existing price ceiling is raised by RelaxPriceIncrement.
// Applied at most once per turn.
func RelaxQuery(query models.SearchQuery) models.SearchQuery {
	relaxed := query
	relaxed.MinAcidity = nil
	relaxed.MaxAcidity = nil
	if query.MaxPrice != nil {
		max := *query.MaxPrice + RelaxPriceIncrement
		relaxed.MaxPrice = &max
	}
	return relaxed
}
