package models

import (
	"errors"
	"strings"
	"testing"
)

func TestAssistantTurnRequestValidate(t *testing.T) {
	valid := AssistantTurnRequest{
		Question: "推薦果香的豆子",
		History: []ConversationTurn{
			{Speaker: SpeakerAssistant, Text: "你喜歡什麼風味？"},
			{Speaker: SpeakerShopper, Text: "果香"},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	empty := AssistantTurnRequest{}
	if err := empty.Validate(); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}

	long := AssistantTurnRequest{Question: strings.Repeat("a", MaxQuestionLength+1)}
	if err := long.Validate(); !errors.Is(err, ErrQuestionTooLong) {
		t.Errorf("expected ErrQuestionTooLong, got %v", err)
	}

	many := AssistantTurnRequest{
		Question: "hi",
		History:  make([]ConversationTurn, MaxHistoryTurns+1),
	}
	for i := range many.History {
		many.History[i] = ConversationTurn{Speaker: SpeakerShopper, Text: "x"}
	}
	if err := many.Validate(); !errors.Is(err, ErrTooManyTurns) {
		t.Errorf("expected ErrTooManyTurns, got %v", err)
	}

	badSpeaker := AssistantTurnRequest{
		Question: "hi",
		History:  []ConversationTurn{{Speaker: "narrator", Text: "x"}},
	}
	if err := badSpeaker.Validate(); !errors.Is(err, ErrInvalidSpeaker) {
		t.Errorf("expected ErrInvalidSpeaker, got %v", err)
	}
}

func TestOrderCreateRequestValidate(t *testing.T) {
	valid := OrderCreateRequest{Items: []OrderItem{{ProductID: 1, Quantity: 2}}}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}

	empty := OrderCreateRequest{}
	if err := empty.Validate(); !errors.Is(err, ErrEmptyOrderItems) {
		t.Errorf("expected ErrEmptyOrderItems, got %v", err)
	}

	bad := OrderCreateRequest{Items: []OrderItem{{ProductID: 1, Quantity: 0}}}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidOrderItem) {
		t.Errorf("expected ErrInvalidOrderItem, got %v", err)
	}
}

func TestShipOrderRequestValidate(t *testing.T) {
	if err := (&ShipOrderRequest{TrackingNo: "TRK1"}).Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}
	if err := (&ShipOrderRequest{}).Validate(); !errors.Is(err, ErrEmptyTrackingNo) {
		t.Errorf("expected ErrEmptyTrackingNo, got %v", err)
	}
}

func TestLoginRequestValidate(t *testing.T) {
	if err := (&LoginRequest{Email: "a@b.c", Password: "pw"}).Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}
	if err := (&LoginRequest{Email: "a@b.c"}).Validate(); !errors.Is(err, ErrEmptyCredentials) {
		t.Errorf("expected ErrEmptyCredentials, got %v", err)
	}
}

func TestIsValidSpeaker(t *testing.T) {
	if !IsValidSpeaker(SpeakerShopper) || !IsValidSpeaker(SpeakerAssistant) {
		t.Error("known speakers rejected")
	}
	if IsValidSpeaker("narrator") {
		t.Error("unknown speaker accepted")
	}
}

func TestPreferencesAny(t *testing.T) {
	var p Preferences
	if p.Any() {
		t.Error("zero preferences should report false")
	}
	origin := "Kenya"
	p.Origin = &origin
	if !p.Any() {
		t.Error("preferences with an origin should report true")
	}
}
