package assistant

import (
	"testing"

	"github.com/feitime/storefront/internal/models"
)

func flavorPtr(c models.FlavorCategory) *models.FlavorCategory { return &c }
func acidityPtr(b models.AcidityBand) *models.AcidityBand      { return &b }
func roastPtr(r models.RoastLevel) *models.RoastLevel          { return &r }
func sortPtr(s models.SpecialSort) *models.SpecialSort         { return &s }
func strPtr(s string) *string                                  { return &s }

func TestResolveStageInitial(t *testing.T) {
	stage, topics := ResolveStage("你好", models.Preferences{}, models.ConversationContext{})
	if stage != models.StageInitial {
		t.Errorf("expected INITIAL, got %s", stage)
	}
	if topics != nil {
		t.Errorf("expected no topics, got %v", topics)
	}
}

func TestResolveStageFlavorOnly(t *testing.T) {
	prefs := models.Preferences{FlavorCategory: flavorPtr(models.FlavorFruity)}
	stage, topics := ResolveStage("我喜歡果香", prefs, models.ConversationContext{})
	if stage != models.StageFlavorSelected {
		t.Errorf("expected FLAVOR_SELECTED, got %s", stage)
	}
	if len(topics) != MaxFollowUpTopics {
		t.Fatalf("expected %d topics, got %v", MaxFollowUpTopics, topics)
	}
	if topics[0] != TopicAcidity || topics[1] != TopicPrice {
		t.Errorf("expected [acidity price], got %v", topics)
	}
}

func TestResolveStageFlavorPlusAcidity(t *testing.T) {
	prefs := models.Preferences{
		FlavorCategory: flavorPtr(models.FlavorFruity),
		AcidityBand:    acidityPtr(models.AcidityHigh),
	}
	stage, _ := ResolveStage("果香明亮", prefs, models.ConversationContext{})
	if stage != models.StageReadyToRecommend {
		t.Errorf("expected READY_TO_RECOMMEND, got %s", stage)
	}
}

func TestResolveStageSpecificName(t *testing.T) {
	prefs := models.Preferences{SpecificName: strPtr("Geisha")}
	stage, _ := ResolveStage("有藝妓嗎", prefs, models.ConversationContext{})
	if stage != models.StageReadyToRecommend {
		t.Errorf("expected READY_TO_RECOMMEND, got %s", stage)
	}
}

func TestResolveStageSpecialSort(t *testing.T) {
	prefs := models.Preferences{SpecialSort: sortPtr(models.SortCheapest)}
	stage, _ := ResolveStage("最便宜的是哪支", prefs, models.ConversationContext{})
	if stage != models.StageReadyToRecommend {
		t.Errorf("expected READY_TO_RECOMMEND, got %s", stage)
	}
}

func TestResolveStageDirectRequest(t *testing.T) {
	// A direct request needs at least one preference to trigger.
	origin := "Kenya"
	prefs := models.Preferences{Origin: &origin}
	stage, _ := ResolveStage("直接推薦吧", prefs, models.ConversationContext{})
	if stage != models.StageReadyToRecommend {
		t.Errorf("expected READY_TO_RECOMMEND, got %s", stage)
	}

	stage, _ = ResolveStage("直接推薦吧", models.Preferences{}, models.ConversationContext{})
	if stage != models.StageInitial {
		t.Errorf("direct request without preferences: expected INITIAL, got %s", stage)
	}
}

func TestResolveStageQuestionFatigue(t *testing.T) {
	prefs := models.Preferences{FlavorCategory: flavorPtr(models.FlavorNutty)}
	cctx := models.ConversationContext{AssistantQuestionCount: 3}
	stage, _ := ResolveStage("嗯", prefs, cctx)
	if stage != models.StageReadyToRecommend {
		t.Errorf("expected READY_TO_RECOMMEND after three questions, got %s", stage)
	}

	// Two questions is not enough on its own.
	cctx.AssistantQuestionCount = 2
	stage, _ = ResolveStage("嗯", prefs, cctx)
	if stage != models.StageFlavorSelected {
		t.Errorf("expected FLAVOR_SELECTED at two questions, got %s", stage)
	}
}

func TestResolveStageImpatience(t *testing.T) {
	prefs := models.Preferences{Roast: roastPtr(models.RoastDark)}
	cctx := models.ConversationContext{ShowsImpatience: true}
	stage, _ := ResolveStage("深焙", prefs, cctx)
	if stage != models.StageReadyToRecommend {
		t.Errorf("expected READY_TO_RECOMMEND for impatient shopper, got %s", stage)
	}

	// Impatience with only an origin filter is not usable.
	origin := "Brazil"
	stage, _ = ResolveStage("巴西", models.Preferences{Origin: &origin}, cctx)
	if stage != models.StageInitial {
		t.Errorf("expected INITIAL, got %s", stage)
	}
}

func TestResolveStageExpert(t *testing.T) {
	prefs := models.Preferences{FlavorCategory: flavorPtr(models.FlavorFloral)}
	cctx := models.ConversationContext{IsExpert: true}
	stage, _ := ResolveStage("花香", prefs, cctx)
	if stage != models.StageReadyToRecommend {
		t.Errorf("expected READY_TO_RECOMMEND for expert shopper, got %s", stage)
	}
}

func TestResolveStageInterviewExhausted(t *testing.T) {
	// Flavor known, nothing else, but every topic was already raised. The
	// bounded re-entry must promote instead of asking a vacuous question.
	prefs := models.Preferences{FlavorCategory: flavorPtr(models.FlavorFruity)}
	cctx := models.ConversationContext{
		AskedAboutAcidity: true,
		AskedAboutPrice:   true,
		AskedAboutRoast:   true,
	}
	stage, topics := ResolveStage("就是果香", prefs, cctx)
	if stage != models.StageReadyToRecommend {
		t.Errorf("expected READY_TO_RECOMMEND on exhausted interview, got %s", stage)
	}
	if topics != nil {
		t.Errorf("expected no topics, got %v", topics)
	}
}

func TestPickFollowUpTopicsSkipsKnownAndAsked(t *testing.T) {
	prefs := models.Preferences{AcidityBand: acidityPtr(models.AcidityLow)}
	cctx := models.ConversationContext{AskedAboutPrice: true}
	topics := PickFollowUpTopics(prefs, cctx)
	if len(topics) != 1 || topics[0] != TopicRoast {
		t.Errorf("expected [roast], got %v", topics)
	}
}

func TestPickFollowUpTopicsCap(t *testing.T) {
	topics := PickFollowUpTopics(models.Preferences{}, models.ConversationContext{})
	if len(topics) != MaxFollowUpTopics {
		t.Errorf("expected cap of %d, got %v", MaxFollowUpTopics, topics)
	}
}
