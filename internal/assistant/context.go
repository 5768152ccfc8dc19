package assistant

import (
	"strings"

	"github.com/feitime/storefront/internal/models"
)

// Behavioral signal keyword tables. Like the preference ladders these are
// best-effort heuristics over both speakers' turns.

var impatienceKeywords = []string{
	"快點", "趕時間", "別問", "不要再問", "直接給", "直接推",
	"hurry", "quickly", "in a rush", "just give", "stop asking",
}

var expertKeywords = []string{
	"處理法", "水洗", "日曬", "厭氧", "杯測", "手沖", "粉水比", "萃取", "風味輪",
	"single origin", "pour over", "pour-over", "cupping", "extraction", "terroir", "v60",
}

var (
	acidityTopicKeywords = []string{"酸", "acidity", "sour"}
	priceTopicKeywords   = []string{"價", "預算", "price", "budget"}
	roastTopicKeywords   = []string{"焙", "烘", "roast"}
)

// AnalyzeContext scans the full transcript (both speakers) and derives the
// behavioral signals used by the stage resolver. Pure counting and keyword
// membership; no external calls.
func AnalyzeContext(history []models.ConversationTurn) models.ConversationContext {
	var cctx models.ConversationContext
	for _, turn := range history {
		text := strings.ToLower(turn.Text)
		switch turn.Speaker {
		case models.SpeakerAssistant:
			if strings.Contains(text, "?") || strings.Contains(text, "？") {
				cctx.AssistantQuestionCount++
			}
			if containsAny(text, acidityTopicKeywords) {
				cctx.AskedAboutAcidity = true
			}
			if containsAny(text, priceTopicKeywords) {
				cctx.AskedAboutPrice = true
			}
			if containsAny(text, roastTopicKeywords) {
				cctx.AskedAboutRoast = true
			}
		case models.SpeakerShopper:
			if containsAny(text, impatienceKeywords) {
				cctx.ShowsImpatience = true
			}
			if containsAny(text, expertKeywords) {
				cctx.IsExpert = true
			}
		}
	}
	return cctx
}
