package assistant

import (
	"strings"

	"github.com/feitime/storefront/internal/models"
)

// directRequestKeywords signal the shopper is explicitly asking for a
// recommendation right now.
var directRequestKeywords = []string{
	"推薦", "直接", "就選", "幫我選", "recommend", "suggest", "give me", "pick for me",
}

// FollowUpTopic is an interview topic the assistant may still raise while
// in the FLAVOR_SELECTED stage.
type FollowUpTopic string

const (
	TopicAcidity FollowUpTopic = "acidity"
	TopicPrice   FollowUpTopic = "price"
	TopicRoast   FollowUpTopic = "roast"
)

// MaxFollowUpTopics caps how many still-unasked topics are raised per turn.
const MaxFollowUpTopics = 2

// stageInput bundles everything a stage rule may look at.
type stageInput struct {
	question           string // case-folded current message
	prefs              models.Preferences
	cctx               models.ConversationContext
	interviewExhausted bool
}

// stageRule is one entry of the ordered triage list. The first rule whose
// predicate holds decides READY_TO_RECOMMEND; evaluation order and
// short-circuiting are load-bearing.
type stageRule struct {
	name    string
	applies func(in stageInput) bool
}

// readyRules, in order: rules 1-5 model "the shopper is signalling urgency
// or expertise, stop interviewing them"; rule 6 models "the shopper already
// gave enough structured detail". An extra final rule fires only on the
// bounded re-entry when every interview topic is exhausted.
var readyRules = []stageRule{
	{"direct request with any preference", func(in stageInput) bool {
		return containsAny(in.question, directRequestKeywords) && in.prefs.Any()
	}},
	{"three questions asked and flavor known", func(in stageInput) bool {
		return in.cctx.AssistantQuestionCount >= 3 && in.prefs.FlavorCategory != nil
	}},
	{"impatient with a usable filter", func(in stageInput) bool {
		return in.cctx.ShowsImpatience &&
			(in.prefs.FlavorCategory != nil || in.prefs.Price != nil || in.prefs.Roast != nil)
	}},
	{"expert with flavor known", func(in stageInput) bool {
		return in.cctx.IsExpert && in.prefs.FlavorCategory != nil
	}},
	{"special sort requested", func(in stageInput) bool {
		return in.prefs.SpecialSort != nil
	}},
	{"enough structured detail", func(in stageInput) bool {
		if in.prefs.SpecificName != nil {
			return true
		}
		return in.prefs.FlavorCategory != nil &&
			(in.prefs.AcidityBand != nil || in.prefs.Price != nil || in.prefs.Roast != nil)
	}},
	{"interview exhausted", func(in stageInput) bool {
		return in.interviewExhausted && in.prefs.FlavorCategory != nil
	}},
}

// ResolveStage combines the newest message, the extracted preferences, and
// the conversation context into one stage value. Stage is derived, never
// stored: replayed transcripts always resolve consistently.
//
// When the result would be FLAVOR_SELECTED but every interview topic has
// already been covered, resolution re-enters exactly once with the
// exhausted-interview signal set, which forces READY_TO_RECOMMEND instead
// of asking a vacuous question.
func ResolveStage(question string, prefs models.Preferences, cctx models.ConversationContext) (models.Stage, []FollowUpTopic) {
	in := stageInput{
		question: strings.ToLower(question),
		prefs:    prefs,
		cctx:     cctx,
	}
	stage := resolveOnce(in)
	if stage != models.StageFlavorSelected {
		return stage, nil
	}
	topics := PickFollowUpTopics(prefs, cctx)
	if len(topics) > 0 {
		return stage, topics
	}
	// Single bounded re-entry; resolveOnce cannot recurse further.
	in.interviewExhausted = true
	return resolveOnce(in), nil
}

func resolveOnce(in stageInput) models.Stage {
	for _, rule := range readyRules {
		if rule.applies(in) {
			return models.StageReadyToRecommend
		}
	}
	if in.prefs.FlavorCategory != nil {
		return models.StageFlavorSelected
	}
	return models.StageInitial
}

// PickFollowUpTopics selects up to MaxFollowUpTopics interview topics that
// the assistant has not raised yet and the shopper has not answered, in the
// fixed order acidity, price, roast.
func PickFollowUpTopics(prefs models.Preferences, cctx models.ConversationContext) []FollowUpTopic {
	var topics []FollowUpTopic
	if prefs.AcidityBand == nil && !cctx.AskedAboutAcidity {
		topics = append(topics, TopicAcidity)
	}
	if prefs.Price == nil && !cctx.AskedAboutPrice {
		topics = append(topics, TopicPrice)
	}
	if prefs.Roast == nil && !cctx.AskedAboutRoast {
		topics = append(topics, TopicRoast)
	}
	if len(topics) > MaxFollowUpTopics {
		topics = topics[:MaxFollowUpTopics]
	}
	return topics
}
