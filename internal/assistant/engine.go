package assistant

import (
	"context"
	"log/slog"

	"github.com/feitime/storefront/internal/models"
)

// CatalogSearcher is the narrow catalog contract the engine depends on.
// Searches are side-effect-free and idempotent for a given specification.
type CatalogSearcher interface {
	Search(ctx context.Context, query models.SearchQuery) ([]models.CatalogItem, error)
}

// Engine runs one dialogue turn: extraction, analysis, stage resolution,
// and (when recommending) up to two catalog calls. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	catalog CatalogSearcher
}

// NewEngine creates an engine backed by the given catalog.
func NewEngine(catalog CatalogSearcher) *Engine {
	return &Engine{catalog: catalog}
}

// TurnDebug is the diagnostic payload attached to each turn result. It is
// informational only and not part of the committed contract.
type TurnDebug struct {
	Stage       models.Stage               `json:"stage"`
	Preferences models.Preferences         `json:"preferences"`
	Context     models.ConversationContext `json:"context"`
	Template    InstructionTemplate        `json:"template"`
	Query       *models.SearchQuery        `json:"query,omitempty"`
	Relaxed     bool                       `json:"relaxed,omitempty"`
}

// TurnResult carries the assembled generation instructions for one turn.
type TurnResult struct {
	SystemInstructions string
	UserInstructions   string
	Products           []models.CatalogItem
	Debug              TurnDebug
}

// HandleTurn runs the full per-turn dataflow over the supplied transcript.
// It is deterministic for a fixed transcript and performs at most two
// catalog calls. Catalog failures degrade the instructions instead of
// propagating; HandleTurn itself does not fail.
func (e *Engine) HandleTurn(ctx context.Context, question string, history []models.ConversationTurn) *TurnResult {
	prefs := ExtractPreferences(question, history)
	cctx := AnalyzeContext(history)
	stage, topics := ResolveStage(question, prefs, cctx)
	slog.Debug("Engine.HandleTurn: stage resolved", "stage", stage, "question_count", cctx.AssistantQuestionCount, "topics", len(topics))

	result := &TurnResult{
		SystemInstructions: SystemInstructions,
		Debug: TurnDebug{
			Stage:       stage,
			Preferences: prefs,
			Context:     cctx,
		},
	}

	var template InstructionTemplate
	switch stage {
	case models.StageReadyToRecommend:
		template = e.search(ctx, prefs, result)
	case models.StageFlavorSelected:
		template = TemplateFollowUp
	default:
		template = TemplateInterviewIntro
	}

	result.Debug.Template = template
	result.UserInstructions = buildUserInstructions(question, history, result.Products, template, topics)
	return result
}

// search executes the primary catalog query and, on an empty result, one
// relaxed retry. It fills result.Products and the query diagnostics and
// returns the instruction template to use.
func (e *Engine) search(ctx context.Context, prefs models.Preferences, result *TurnResult) InstructionTemplate {
	query := BuildQuery(prefs)
	result.Debug.Query = &query

	items, err := e.catalog.Search(ctx, query)
	if err != nil {
		slog.Error("Engine.search: primary catalog query failed", "error", err)
		return TemplateSearchFailed
	}
	if len(items) == 0 {
		relaxed := RelaxQuery(query)
		result.Debug.Query = &relaxed
		result.Debug.Relaxed = true
		slog.Debug("Engine.search: empty result, retrying with relaxed query")
		items, err = e.catalog.Search(ctx, relaxed)
		if err != nil {
			slog.Error("Engine.search: relaxed catalog query failed", "error", err)
			return TemplateSearchFailed
		}
	}
	if len(items) == 0 {
		return TemplateNoExactMatch
	}

	result.Products = items
	if prefs.SpecialSort != nil {
		switch *prefs.SpecialSort {
		case models.SortMostExpensive:
			return TemplateMostExpensive
		case models.SortCheapest:
			return TemplateCheapest
		case models.SortMostPopular:
			return TemplateMostPopular
		}
	}
	return TemplateRecommend
}
