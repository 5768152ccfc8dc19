package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/feitime/storefront/internal/assistant"
	"github.com/feitime/storefront/internal/auth"
	"github.com/feitime/storefront/internal/models"
	"github.com/feitime/storefront/internal/notify"
	"github.com/feitime/storefront/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// stubGenerator returns a fixed answer or error without calling OpenAI.
type stubGenerator struct {
	answer string
	err    error
	calls  int
}

func (g *stubGenerator) GeneratePrompt(ctx context.Context, systemInstructions, userInstructions string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

// mockSender records shipment notifications.
type mockSender struct {
	calls []string
	err   error
}

func (m *mockSender) SendShipmentUpdate(ctx context.Context, to, orderID, carrier, trackingNo string) error {
	m.calls = append(m.calls, orderID)
	return m.err
}

// envelope mirrors the response wrapper for decoding in tests.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func testStore(t *testing.T) *store.InMemoryStore {
	t.Helper()
	st := store.NewInMemoryStore()
	st.AddProduct(models.CatalogItem{ID: 1, Name: "耶加雪菲 G1", Origin: "Ethiopia", Roast: "Light", FlavorType: "Fruity", Acidity: 5, Sweetness: 4, Body: 2, Price: 520, Popularity: 90})
	st.AddProduct(models.CatalogItem{ID: 2, Name: "曼特寧 G1", Origin: "Indonesia", Roast: "Dark", FlavorType: "Bold", Acidity: 1, Sweetness: 2, Body: 5, Price: 450, Popularity: 95})

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	st.AddMember(models.Member{ID: "m1", Email: "amy@example.com", Name: "Amy", PasswordHash: string(hash)})
	return st
}

func testServer(t *testing.T, gen generator, sender *mockSender) (*Server, *auth.Manager) {
	t.Helper()
	mgr, err := auth.NewManager(auth.WithSecret("test-secret"))
	if err != nil {
		t.Fatalf("auth manager error: %v", err)
	}
	var notifier notify.Sender
	if sender != nil {
		notifier = sender
	}
	srv, _ := NewServer(testStore(t), gen, notifier, mgr)
	return srv, mgr
}

func doRequest(srv *Server, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&payload).Encode(body)
	}
	req := httptest.NewRequest(method, target, &payload)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := testServer(t, &stubGenerator{answer: "ok"}, nil)
	rec := doRequest(srv, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAssistantTurnSuccess(t *testing.T) {
	gen := &stubGenerator{answer: "  推薦耶加雪菲，果香明亮！  "}
	srv, _ := testServer(t, gen, nil)

	rec := doRequest(srv, http.MethodPost, "/api/assistant/turn", "", models.AssistantTurnRequest{
		Question: "推薦果香明亮的豆子",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	var result AssistantTurnResponse
	if err := json.Unmarshal(env.Result, &result); err != nil {
		t.Fatalf("decode result error: %v", err)
	}
	if result.Answer != "推薦耶加雪菲，果香明亮！" {
		t.Errorf("expected trimmed answer, got %q", result.Answer)
	}
	if len(result.Products) == 0 {
		t.Error("expected products in the response")
	}
	if result.Debug != nil {
		t.Error("debug payload must be off by default")
	}
	if gen.calls != 1 {
		t.Errorf("expected one generation call, got %d", gen.calls)
	}
}

func TestAssistantTurnGenerationFailure(t *testing.T) {
	srv, _ := testServer(t, &stubGenerator{err: errors.New("429 rate limited")}, nil)

	rec := doRequest(srv, http.MethodPost, "/api/assistant/turn", "", models.AssistantTurnRequest{
		Question: "推薦果香的豆子",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	var result AssistantTurnResponse
	if err := json.Unmarshal(env.Result, &result); err != nil {
		t.Fatalf("decode result error: %v", err)
	}
	if result.Answer != assistant.FallbackAnswer {
		t.Errorf("expected the apology fallback, got %q", result.Answer)
	}
}

func TestAssistantTurnValidation(t *testing.T) {
	srv, _ := testServer(t, &stubGenerator{answer: "ok"}, nil)

	rec := doRequest(srv, http.MethodPost, "/api/assistant/turn", "", models.AssistantTurnRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty question: expected 400, got %d", rec.Code)
	}
}

func TestAssistantTurnWithoutGenerator(t *testing.T) {
	srv, _ := testServer(t, nil, nil)

	rec := doRequest(srv, http.MethodPost, "/api/assistant/turn", "", models.AssistantTurnRequest{Question: "hi"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestAssistantTurnDebugPayload(t *testing.T) {
	mgr, _ := auth.NewManager(auth.WithSecret("test-secret"))
	srv, _ := NewServer(testStore(t), &stubGenerator{answer: "ok"}, nil, mgr, WithDebugPayload(true))

	rec := doRequest(srv, http.MethodPost, "/api/assistant/turn", "", models.AssistantTurnRequest{Question: "你好"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	var result AssistantTurnResponse
	if err := json.Unmarshal(env.Result, &result); err != nil {
		t.Fatalf("decode result error: %v", err)
	}
	if result.Debug == nil {
		t.Fatal("expected a debug payload")
	}
	if result.Debug.Stage != models.StageInitial {
		t.Errorf("expected INITIAL stage, got %s", result.Debug.Stage)
	}
}

func TestListAndGetProducts(t *testing.T) {
	srv, _ := testServer(t, nil, nil)

	rec := doRequest(srv, http.MethodGet, "/api/products?limit=1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	var products []models.CatalogItem
	if err := json.Unmarshal(env.Result, &products); err != nil {
		t.Fatalf("decode result error: %v", err)
	}
	if len(products) != 1 || products[0].ID != 2 {
		t.Errorf("expected the most popular product first, got %+v", products)
	}

	rec = doRequest(srv, http.MethodGet, "/api/products/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	rec = doRequest(srv, http.MethodGet, "/api/products/999", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing product: expected 404, got %d", rec.Code)
	}
	rec = doRequest(srv, http.MethodGet, "/api/products/abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}
	rec = doRequest(srv, http.MethodGet, "/api/products?limit=0", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	srv, mgr := testServer(t, nil, nil)

	rec := doRequest(srv, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "amy@example.com", Password: "correct-horse"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	var result LoginResponse
	if err := json.Unmarshal(env.Result, &result); err != nil {
		t.Fatalf("decode result error: %v", err)
	}
	if memberID, err := mgr.VerifyToken(result.Token); err != nil || memberID != "m1" {
		t.Errorf("issued token does not verify: id=%q err=%v", memberID, err)
	}
	if result.Member == nil || result.Member.Email != "amy@example.com" {
		t.Errorf("unexpected member payload: %+v", result.Member)
	}

	rec = doRequest(srv, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "amy@example.com", Password: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", rec.Code)
	}
	rec = doRequest(srv, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "nobody@example.com", Password: "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown email: expected 401, got %d", rec.Code)
	}
}

func TestOrdersRequireAuth(t *testing.T) {
	srv, _ := testServer(t, nil, nil)

	rec := doRequest(srv, http.MethodPost, "/api/orders", "", models.OrderCreateRequest{Items: []models.OrderItem{{ProductID: 1, Quantity: 1}}})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: expected 401, got %d", rec.Code)
	}

	rec = doRequest(srv, http.MethodGet, "/api/member/orders", "bogus.token.here", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", rec.Code)
	}
}

func TestOrderLifecycle(t *testing.T) {
	sender := &mockSender{}
	srv, mgr := testServer(t, nil, sender)
	token, err := mgr.IssueToken("m1")
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	// Create: client-sent prices are ignored in favor of the catalog.
	rec := doRequest(srv, http.MethodPost, "/api/orders", token, models.OrderCreateRequest{
		Items: []models.OrderItem{{ProductID: 1, Quantity: 2, UnitPrice: 1}},
		Phone: "+886912345678",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	var order models.Order
	if err := json.Unmarshal(env.Result, &order); err != nil {
		t.Fatalf("decode result error: %v", err)
	}
	if order.MemberID != "m1" {
		t.Errorf("expected member m1, got %s", order.MemberID)
	}
	if order.Total != 1040 {
		t.Errorf("expected catalog-priced total 1040, got %d", order.Total)
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("expected pending, got %s", order.Status)
	}

	// List: the new order shows up for its member.
	rec = doRequest(srv, http.MethodGet, "/api/member/orders", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	var orders []models.Order
	if err := json.Unmarshal(env.Result, &orders); err != nil {
		t.Fatalf("decode result error: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != order.ID {
		t.Errorf("expected the created order, got %+v", orders)
	}

	// Ship: transitions the order and notifies the shopper.
	rec = doRequest(srv, http.MethodPost, "/api/orders/"+order.ID+"/ship", token, models.ShipOrderRequest{TrackingNo: "TRK123", Carrier: "黑貓宅急便"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(sender.calls) != 1 || sender.calls[0] != order.ID {
		t.Errorf("expected one shipment notification for %s, got %v", order.ID, sender.calls)
	}

	// Shipping twice conflicts.
	rec = doRequest(srv, http.MethodPost, "/api/orders/"+order.ID+"/ship", token, models.ShipOrderRequest{TrackingNo: "TRK123"})
	if rec.Code != http.StatusConflict {
		t.Errorf("double ship: expected 409, got %d", rec.Code)
	}
}

func TestShipForeignOrderForbidden(t *testing.T) {
	sender := &mockSender{}
	srv, mgr := testServer(t, nil, sender)
	ownerToken, _ := mgr.IssueToken("m1")
	otherToken, _ := mgr.IssueToken("m2")

	rec := doRequest(srv, http.MethodPost, "/api/orders", ownerToken, models.OrderCreateRequest{
		Items: []models.OrderItem{{ProductID: 1, Quantity: 1}},
		Phone: "+886912345678",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	var order models.Order
	_ = json.Unmarshal(env.Result, &order)

	// Another member must not be able to ship the order or trigger its SMS.
	rec = doRequest(srv, http.MethodPost, "/api/orders/"+order.ID+"/ship", otherToken, models.ShipOrderRequest{TrackingNo: "TRK1"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign member: expected 403, got %d", rec.Code)
	}
	if len(sender.calls) != 0 {
		t.Errorf("expected no shipment notification, got %v", sender.calls)
	}
	got, err := srv.st.GetOrder(context.Background(), order.ID)
	if err != nil || got == nil {
		t.Fatalf("order lookup failed: %v", err)
	}
	if got.Status != models.OrderStatusPending {
		t.Errorf("order must stay pending, got %s", got.Status)
	}

	// The owner still can.
	rec = doRequest(srv, http.MethodPost, "/api/orders/"+order.ID+"/ship", ownerToken, models.ShipOrderRequest{TrackingNo: "TRK1"})
	if rec.Code != http.StatusOK {
		t.Errorf("owner: expected 200, got %d", rec.Code)
	}
}

func TestShipUnknownOrder(t *testing.T) {
	srv, mgr := testServer(t, nil, nil)
	token, _ := mgr.IssueToken("m1")

	rec := doRequest(srv, http.MethodPost, "/api/orders/nope/ship", token, models.ShipOrderRequest{TrackingNo: "TRK1"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	srv, mgr := testServer(t, nil, nil)
	token, _ := mgr.IssueToken("m1")

	rec := doRequest(srv, http.MethodPost, "/api/orders", token, models.OrderCreateRequest{
		Items: []models.OrderItem{{ProductID: 999, Quantity: 1}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestNotificationFailureDoesNotFailShipment(t *testing.T) {
	sender := &mockSender{err: errors.New("twilio down")}
	srv, mgr := testServer(t, nil, sender)
	token, _ := mgr.IssueToken("m1")

	rec := doRequest(srv, http.MethodPost, "/api/orders", token, models.OrderCreateRequest{
		Items: []models.OrderItem{{ProductID: 2, Quantity: 1}},
		Phone: "+886912345678",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	var order models.Order
	_ = json.Unmarshal(env.Result, &order)

	rec = doRequest(srv, http.MethodPost, "/api/orders/"+order.ID+"/ship", token, models.ShipOrderRequest{TrackingNo: "TRK9"})
	if rec.Code != http.StatusOK {
		t.Errorf("notification failure must not fail the transition, got %d", rec.Code)
	}
}
