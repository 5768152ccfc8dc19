package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/feitime/storefront/internal/models"
	"github.com/google/uuid"
)

// createOrderHandler handles POST /api/orders. Prices are resolved from the
// catalog at creation time; the client-submitted unit prices are ignored.
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req models.OrderCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("createOrderHandler: invalid JSON payload", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON payload"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	memberID := memberIDFromContext(r.Context())

	items := make([]models.OrderItem, 0, len(req.Items))
	total := 0
	for _, item := range req.Items {
		product, err := s.st.GetProduct(r.Context(), item.ProductID)
		if err != nil {
			slog.Error("createOrderHandler: product lookup failed", "error", err, "product_id", item.ProductID)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create order"))
			return
		}
		if product == nil {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Unknown product in order"))
			return
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
		total += product.Price * item.Quantity
	}

	now := time.Now()
	order := models.Order{
		ID:        uuid.NewString(),
		MemberID:  memberID,
		Items:     items,
		Total:     total,
		Status:    models.OrderStatusPending,
		Phone:     req.Phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.st.SaveOrder(r.Context(), order); err != nil {
		slog.Error("createOrderHandler: saving order failed", "error", err, "order_id", order.ID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to create order"))
		return
	}

	slog.Info("createOrderHandler: order created", "order_id", order.ID, "member_id", memberID, "total", total)
	writeJSONResponse(w, http.StatusCreated, models.Success(order))
}

// listMemberOrdersHandler handles GET /api/member/orders.
func (s *Server) listMemberOrdersHandler(w http.ResponseWriter, r *http.Request) {
	memberID := memberIDFromContext(r.Context())
	orders, err := s.st.ListOrdersByMember(r.Context(), memberID)
	if err != nil {
		slog.Error("listMemberOrdersHandler: listing orders failed", "error", err, "member_id", memberID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list orders"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(orders))
}

// shipOrderHandler handles POST /api/orders/{id}/ship. Only the member who
// placed the order may ship it. The shipment SMS is best effort; a
// notification failure does not fail the transition.
func (s *Server) shipOrderHandler(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")

	var req models.ShipOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("shipOrderHandler: invalid JSON payload", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON payload"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	order, err := s.st.GetOrder(r.Context(), orderID)
	if err != nil {
		slog.Error("shipOrderHandler: order lookup failed", "error", err, "order_id", orderID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to ship order"))
		return
	}
	if order == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Order not found"))
		return
	}
	if order.MemberID != memberIDFromContext(r.Context()) {
		slog.Warn("shipOrderHandler: member does not own order", "order_id", orderID)
		writeJSONResponse(w, http.StatusForbidden, models.Error("Order belongs to another member"))
		return
	}
	if order.Status == models.OrderStatusShipped {
		writeJSONResponse(w, http.StatusConflict, models.Error("Order already shipped"))
		return
	}

	order.Status = models.OrderStatusShipped
	order.TrackingNo = req.TrackingNo
	order.UpdatedAt = time.Now()
	if err := s.st.SaveOrder(r.Context(), *order); err != nil {
		slog.Error("shipOrderHandler: saving order failed", "error", err, "order_id", orderID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to ship order"))
		return
	}

	if s.notifier != nil && order.Phone != "" {
		if err := s.notifier.SendShipmentUpdate(r.Context(), order.Phone, order.ID, req.Carrier, req.TrackingNo); err != nil {
			slog.Error("shipOrderHandler: shipment notification failed", "error", err, "order_id", orderID)
		}
	} else {
		slog.Debug("shipOrderHandler: shipment notification skipped", "order_id", orderID, "notifier_set", s.notifier != nil)
	}

	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Order shipped", order))
}
