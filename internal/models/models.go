// Package models defines the core data structures for the FeiTime storefront.
//
// It includes the conversation, preference, and catalog types shared by the
// assistant engine, the catalog stores, and the HTTP layer.
package models

import (
	"errors"
	"time"
)

// Speaker identifies who authored a conversation turn.
type Speaker string

const (
	// SpeakerShopper marks a turn written by the customer.
	SpeakerShopper Speaker = "shopper"
	// SpeakerAssistant marks a turn written by the assistant.
	SpeakerAssistant Speaker = "assistant"
)

// IsValidSpeaker checks if the given speaker value is supported.
func IsValidSpeaker(s Speaker) bool {
	return s == SpeakerShopper || s == SpeakerAssistant
}

// ConversationTurn is one entry of the transcript supplied with each request.
// Turns are ordered oldest first and are never mutated by the engine.
type ConversationTurn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// FlavorCategory is the coarse flavor bucket extracted from shopper text.
type FlavorCategory string

const (
	FlavorFruity FlavorCategory = "fruity"
	FlavorFloral FlavorCategory = "floral"
	FlavorNutty  FlavorCategory = "nutty"
	FlavorBold   FlavorCategory = "bold"
)

// AcidityBand is the coarse acidity preference extracted from shopper text.
type AcidityBand string

const (
	AcidityHigh   AcidityBand = "high"
	AcidityMedium AcidityBand = "medium"
	AcidityLow    AcidityBand = "low"
)

// RoastLevel uses the catalog's capitalized roast tokens.
type RoastLevel string

const (
	RoastLight  RoastLevel = "Light"
	RoastMedium RoastLevel = "Medium"
	RoastDark   RoastLevel = "Dark"
)

// SpecialSort is a whole-catalog sort request that overrides every filter.
type SpecialSort string

const (
	SortMostExpensive SpecialSort = "most_expensive"
	SortCheapest      SpecialSort = "cheapest"
	SortMostPopular   SpecialSort = "most_popular"
)

// PriceRange holds the extracted price preference. At most one of Budget or
// the Min/Max pair is populated per extraction pass.
type PriceRange struct {
	Budget *int `json:"budget,omitempty"`
	Min    *int `json:"min,omitempty"`
	Max    *int `json:"max,omitempty"`
}

// Preferences is the structured taste/budget/origin record derived from the
// shopper-authored portion of the transcript. Every field is nil unless a
// keyword pattern matched.
type Preferences struct {
	FlavorCategory *FlavorCategory `json:"flavor_category,omitempty"`
	AcidityBand    *AcidityBand    `json:"acidity_band,omitempty"`
	Price          *PriceRange     `json:"price,omitempty"`
	Roast          *RoastLevel     `json:"roast,omitempty"`
	Origin         *string         `json:"origin,omitempty"`
	SpecificName   *string         `json:"specific_name,omitempty"`
	SpecialSort    *SpecialSort    `json:"special_sort,omitempty"`
}

// Any reports whether at least one preference field is set.
func (p *Preferences) Any() bool {
	return p.FlavorCategory != nil || p.AcidityBand != nil || p.Price != nil ||
		p.Roast != nil || p.Origin != nil || p.SpecificName != nil || p.SpecialSort != nil
}

// ConversationContext carries the behavioral signals derived from the full
// transcript. Recomputed per call, read-only once built.
type ConversationContext struct {
	AssistantQuestionCount int  `json:"assistant_question_count"`
	ShowsImpatience        bool `json:"shows_impatience"`
	IsExpert               bool `json:"is_expert"`
	AskedAboutAcidity      bool `json:"asked_about_acidity"`
	AskedAboutPrice        bool `json:"asked_about_price"`
	AskedAboutRoast        bool `json:"asked_about_roast"`
}

// Stage is the engine's belief about how far the preference-gathering
// dialogue has progressed. It is derived from the transcript on every call,
// never stored or transitioned.
type Stage string

const (
	StageInitial          Stage = "INITIAL"
	StageFlavorSelected   Stage = "FLAVOR_SELECTED"
	StageReadyToRecommend Stage = "READY_TO_RECOMMEND"
)

// Sort keys understood by the catalog stores.
const (
	SortKeyPriceDesc      = "price desc"
	SortKeyPriceAsc       = "price asc"
	SortKeyPopularityDesc = "popularity desc"
)

// DefaultSearchLimit bounds ordinary catalog searches.
const DefaultSearchLimit = 5

// SearchQuery is the catalog search specification built from Preferences.
// A zero Limit means unbounded.
type SearchQuery struct {
	Category      string `json:"category,omitempty"`
	MinAcidity    *int   `json:"min_acidity,omitempty"`
	MaxAcidity    *int   `json:"max_acidity,omitempty"`
	MinPrice      *int   `json:"min_price,omitempty"`
	MaxPrice      *int   `json:"max_price,omitempty"`
	Origin        string `json:"origin,omitempty"`
	Roast         string `json:"roast,omitempty"`
	NameSubstring string `json:"name_substring,omitempty"`
	SortKey       string `json:"sort_key,omitempty"`
	Limit         int    `json:"limit"`
}

// CatalogItem is a read-only product record returned by the catalog store.
type CatalogItem struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Origin      string   `json:"origin"`
	Roast       string   `json:"roast"`
	Processing  string   `json:"processing,omitempty"`
	FlavorType  string   `json:"flavor_type"`
	FlavorTags  []string `json:"flavor_tags,omitempty"`
	Acidity     int      `json:"acidity"`
	Sweetness   int      `json:"sweetness"`
	Body        int      `json:"body"`
	Price       int      `json:"price"`
	Popularity  int      `json:"popularity"`
	Description string   `json:"description,omitempty"`
}

// OrderStatus tracks the lifecycle of a storefront order.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusShipped OrderStatus = "shipped"
)

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// Order is a storefront order. Payment capture lives outside this service;
// orders here are created pending and only the ship transition is exposed.
type Order struct {
	ID         string      `json:"id"`
	MemberID   string      `json:"member_id"`
	Items      []OrderItem `json:"items"`
	Total      int         `json:"total"`
	Status     OrderStatus `json:"status"`
	Phone      string      `json:"phone,omitempty"`
	TrackingNo string      `json:"tracking_no,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Member is a registered storefront customer.
type Member struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validation constants for input validation
const (
	// MaxQuestionLength defines the maximum allowed length for an assistant question
	MaxQuestionLength = 2000
	// MaxHistoryTurns defines the maximum number of transcript turns accepted per request
	MaxHistoryTurns = 50
	// MaxTurnTextLength defines the maximum allowed length for a single turn's text
	MaxTurnTextLength = 4096
	// MaxOrderItems defines the maximum number of lines in an order
	MaxOrderItems = 50
)

// Error variables for better error handling and testability
var (
	ErrEmptyQuestion     = errors.New("question cannot be empty")
	ErrQuestionTooLong   = errors.New("question exceeds maximum length")
	ErrTooManyTurns      = errors.New("conversation history exceeds maximum turn count")
	ErrTurnTextTooLong   = errors.New("conversation turn text exceeds maximum length")
	ErrInvalidSpeaker    = errors.New("conversation turn has an invalid speaker")
	ErrEmptyOrderItems   = errors.New("order must contain at least one item")
	ErrTooManyOrderItems = errors.New("order exceeds maximum item count")
	ErrInvalidOrderItem  = errors.New("order item must have a product and positive quantity")
	ErrEmptyCredentials  = errors.New("email and password are required")
	ErrEmptyTrackingNo   = errors.New("tracking number is required")
)

// AssistantTurnRequest is the payload for POST /api/assistant/turn.
type AssistantTurnRequest struct {
	Question string             `json:"question"`
	History  []ConversationTurn `json:"history,omitempty"`
}

// Validate performs validation on an AssistantTurnRequest. Malformed input
// is rejected here, before the engine runs.
func (r *AssistantTurnRequest) Validate() error {
	if r.Question == "" {
		return ErrEmptyQuestion
	}
	if len(r.Question) > MaxQuestionLength {
		return ErrQuestionTooLong
	}
	if len(r.History) > MaxHistoryTurns {
		return ErrTooManyTurns
	}
	for _, turn := range r.History {
		if !IsValidSpeaker(turn.Speaker) {
			return ErrInvalidSpeaker
		}
		if len(turn.Text) > MaxTurnTextLength {
			return ErrTurnTextTooLong
		}
	}
	return nil
}

// OrderCreateRequest is the payload for POST /api/orders.
type OrderCreateRequest struct {
	Items []OrderItem `json:"items"`
	Phone string      `json:"phone,omitempty"`
}

// Validate performs validation on an OrderCreateRequest.
func (r *OrderCreateRequest) Validate() error {
	if len(r.Items) == 0 {
		return ErrEmptyOrderItems
	}
	if len(r.Items) > MaxOrderItems {
		return ErrTooManyOrderItems
	}
	for _, item := range r.Items {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			return ErrInvalidOrderItem
		}
	}
	return nil
}

// ShipOrderRequest is the payload for POST /api/orders/{id}/ship.
type ShipOrderRequest struct {
	TrackingNo string `json:"tracking_no"`
	Carrier    string `json:"carrier,omitempty"`
}

// Validate performs validation on a ShipOrderRequest.
func (r *ShipOrderRequest) Validate() error {
	if r.TrackingNo == "" {
		return ErrEmptyTrackingNo
	}
	return nil
}

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate performs validation on a LoginRequest.
func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return ErrEmptyCredentials
	}
	return nil
}
