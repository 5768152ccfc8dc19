// Package assistant implements the conversational coffee-recommendation
// engine: preference extraction, context analysis, stage resolution, query
// building, and search orchestration. Everything here is stateless and
// recomputed from the supplied transcript on every call.
package assistant

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/feitime/storefront/internal/models"
)

// The keyword tables below are ordered: within each dimension the first
// matching rule wins and later rules are not evaluated. The tables are
// bilingual (Traditional Chinese plus English) and are data, not contract;
// adjust membership freely, but keep the ordering.

// flavorRule maps a keyword set to a flavor category.
type flavorRule struct {
	category models.FlavorCategory
	keywords []string
}

var flavorRules = []flavorRule{
	{models.FlavorFruity, []string{"果", "莓", "柑橘", "fruit", "berry", "citrus"}},
	{models.FlavorFloral, []string{"花", "茉莉", "香", "floral", "jasmine", "fragran"}},
	{models.FlavorNutty, []string{"堅果", "巧克力", "焦糖", "平衡", "nut", "chocolate", "caramel", "balance"}},
	{models.FlavorBold, []string{"濃", "厚", "苦", "煙燻", "heavy", "thick", "bitter", "smoky", "bold"}},
}

// acidityRule maps a keyword set to an acidity band.
type acidityRule struct {
	band     models.AcidityBand
	keywords []string
}

var acidityRules = []acidityRule{
	{models.AcidityHigh, []string{"高酸", "酸值高", "明亮", "high acid", "bright"}},
	{models.AcidityLow, []string{"低酸", "不要酸", "不酸", "low acid", "not sour"}},
	{models.AcidityMedium, []string{"中酸", "酸度中", "均衡", "隨便", "medium acid", "balanced", "whatever"}},
}

// budgetPattern captures a number adjacent to a currency-unit word, in
// either prefix ("budget 400", "NT$400") or suffix ("400元") position.
var budgetPattern = regexp.MustCompile(`(?:budget|預算|nt\$|\$)\s*(\d+)|(\d+)\s*(?:元|塊|dollars?|ntd|twd|bucks?)`)

// MinRecognizedBudget is the smallest captured number treated as a budget.
// Smaller numbers are assumed to be something else (a count, a rating).
const MinRecognizedBudget = 100

// Fallback price bands for the keyword branches of the price ladder.
const (
	cheapMaxPrice   = 500
	premiumMinPrice = 1000
	midRangeMin     = 400
	midRangeMax     = 800
)

var (
	cheapKeywords    = []string{"便宜", "平價", "實惠", "cheap", "affordable"}
	premiumKeywords  = []string{"高級", "頂級", "奢華", "premium", "top-tier", "top tier"}
	midRangeKeywords = []string{"中價", "中等價", "mid-range", "mid range", "midrange"}
)

// roastRule maps a keyword set to a roast level. The keywords carry the
// 焙/烘 suffix so a bare "中" next to "淺" or "深" can never match the
// wrong level.
type roastRule struct {
	roast    models.RoastLevel
	keywords []string
}

var roastRules = []roastRule{
	{models.RoastLight, []string{"淺焙", "淺烘", "light roast", "lightly roasted"}},
	{models.RoastMedium, []string{"中焙", "中烘", "medium roast"}},
	{models.RoastDark, []string{"深焙", "深烘", "dark roast"}},
}

// originEntry pairs a canonical origin name with its aliases. Entries are
// scanned in declaration order; the first alias hit wins.
type originEntry struct {
	canonical string
	aliases   []string
}

var originGazetteer = []originEntry{
	{"Ethiopia", []string{"ethiopia", "衣索比亞", "埃塞俄比亞"}},
	{"Kenya", []string{"kenya", "肯亞", "肯尼亞"}},
	{"Colombia", []string{"colombia", "哥倫比亞"}},
	{"Brazil", []string{"brazil", "巴西"}},
	{"Panama", []string{"panama", "巴拿馬"}},
	{"Indonesia", []string{"indonesia", "印尼"}},
	{"Guatemala", []string{"guatemala", "瓜地馬拉"}},
	{"Costa Rica", []string{"costa rica", "哥斯大黎加"}},
}

// nameEntry pairs a canonical variety or processing-method token with its
// aliases for name-substring search.
type nameEntry struct {
	canonical string
	aliases   []string
}

// varietyGazetteer is scanned before processingGazetteer; a variety hit
// suppresses the processing scan entirely.
var varietyGazetteer = []nameEntry{
	{"Geisha", []string{"geisha", "藝妓", "瑰夏"}},
	{"Bourbon", []string{"bourbon", "波旁"}},
	{"Typica", []string{"typica", "鐵皮卡"}},
	{"Pacamara", []string{"pacamara", "帕卡馬拉"}},
	{"SL28", []string{"sl28"}},
}

var processingGazetteer = []nameEntry{
	{"Natural", []string{"日曬", "natural"}},
	{"Washed", []string{"水洗", "washed"}},
	{"Honey", []string{"蜜處理", "honey"}},
	{"Anaerobic", []string{"厭氧", "anaerobic"}},
}

// sortRule maps a keyword set to a special sort mode.
type sortRule struct {
	sort     models.SpecialSort
	keywords []string
}

var specialSortRules = []sortRule{
	{models.SortMostExpensive, []string{"最貴", "最高價", "most expensive", "priciest"}},
	{models.SortCheapest, []string{"最便宜", "最低價", "cheapest", "least expensive"}},
	{models.SortMostPopular, []string{"最熱門", "最受歡迎", "熱銷", "人氣", "most popular", "best seller", "bestseller", "popular"}},
}

// containsAny reports whether the pool contains at least one keyword.
func containsAny(pool string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(pool, kw) {
			return true
		}
	}
	return false
}

// buildPreferencePool concatenates every shopper-authored turn plus the
// in-flight question into one case-folded pool.
func buildPreferencePool(question string, history []models.ConversationTurn) string {
	var b strings.Builder
	for _, turn := range history {
		if turn.Speaker != models.SpeakerShopper {
			continue
		}
		b.WriteString(turn.Text)
		b.WriteString(" ")
	}
	b.WriteString(question)
	return strings.ToLower(b.String())
}

// ExtractPreferences scans the shopper-authored portion of the transcript
// plus the current question and derives a Preferences record.
//
// Conflicting keywords for the same dimension across different turns are
// not merged: the first matching branch anywhere in the concatenated pool
// wins, so a later, more specific statement cannot override an earlier
// coarse one within a single pass. This is a documented limitation of the
// heuristic, not a bug.
func ExtractPreferences(question string, history []models.ConversationTurn) models.Preferences {
	pool := buildPreferencePool(question, history)
	return extractFromPool(pool)
}

func extractFromPool(pool string) models.Preferences {
	var prefs models.Preferences

	for _, rule := range flavorRules {
		if containsAny(pool, rule.keywords) {
			category := rule.category
			prefs.FlavorCategory = &category
			break
		}
	}

	for _, rule := range acidityRules {
		if containsAny(pool, rule.keywords) {
			band := rule.band
			prefs.AcidityBand = &band
			break
		}
	}

	prefs.Price = extractPrice(pool)

	for _, rule := range roastRules {
		if containsAny(pool, rule.keywords) {
			roast := rule.roast
			prefs.Roast = &roast
			break
		}
	}

	for _, entry := range originGazetteer {
		if containsAny(pool, entry.aliases) {
			origin := entry.canonical
			prefs.Origin = &origin
			break
		}
	}

	prefs.SpecificName = extractSpecificName(pool)

	for _, rule := range specialSortRules {
		if containsAny(pool, rule.keywords) {
			sort := rule.sort
			prefs.SpecialSort = &sort
			break
		}
	}

	return prefs
}

// extractPrice runs the price ladder: explicit budget number first, then
// cheap, premium, and mid-range keyword branches.
func extractPrice(pool string) *models.PriceRange {
	if m := budgetPattern.FindStringSubmatch(pool); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		if n, err := strconv.Atoi(raw); err == nil && n >= MinRecognizedBudget {
			return &models.PriceRange{Budget: &n}
		}
	}
	if containsAny(pool, cheapKeywords) {
		max := cheapMaxPrice
		return &models.PriceRange{Max: &max}
	}
	if containsAny(pool, premiumKeywords) {
		min := premiumMinPrice
		return &models.PriceRange{Min: &min}
	}
	if containsAny(pool, midRangeKeywords) {
		min, max := midRangeMin, midRangeMax
		return &models.PriceRange{Min: &min, Max: &max}
	}
	return nil
}

// extractSpecificName scans the variety gazetteer first; the processing
// gazetteer is only consulted when no variety matched.
func extractSpecificName(pool string) *string {
	for _, entry := range varietyGazetteer {
		if containsAny(pool, entry.aliases) {
			name := entry.canonical
			return &name
		}
	}
	for _, entry := range processingGazetteer {
		if containsAny(pool, entry.aliases) {
			name := entry.canonical
			return &name
		}
	}
	return nil
}
