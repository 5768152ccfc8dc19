package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/feitime/storefront/internal/models"
)

// listProductsHandler handles GET /api/products with limit/offset paging.
func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	limit := DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid limit parameter"))
			return
		}
		limit = min(parsed, MaxListLimit)
	}

	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid offset parameter"))
			return
		}
		offset = parsed
	}

	products, err := s.st.ListProducts(r.Context(), limit, offset)
	if err != nil {
		slog.Error("listProductsHandler: listing products failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list products"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(products))
}

// getProductHandler handles GET /api/products/{id}.
func (s *Server) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid product ID"))
		return
	}

	product, err := s.st.GetProduct(r.Context(), id)
	if err != nil {
		slog.Error("getProductHandler: fetching product failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch product"))
		return
	}
	if product == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Product not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(product))
}
