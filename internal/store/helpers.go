package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/feitime/storefront/internal/models"
)

// productColumns is the shared SELECT column list for product queries.
const productColumns = "id, name, origin, roast, processing, flavor_type, flavor_tags, acidity, sweetness, body, price, popularity, description"

// placeholderFunc renders the n-th (1-based) SQL placeholder for a dialect.
type placeholderFunc func(n int) string

func sqlitePlaceholder(int) string     { return "?" }
func postgresPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// buildSearchSQL translates a SearchQuery into a WHERE/ORDER BY/LIMIT tail
// and its arguments. The substring filter is case-insensitive in both
// dialects (names are compared lowercased).
func buildSearchSQL(query models.SearchQuery, placeholder placeholderFunc) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(expr string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(expr, placeholder(len(args))))
	}

	if query.Category != "" {
		add("flavor_type = %s", query.Category)
	}
	if query.MinAcidity != nil {
		add("acidity >= %s", *query.MinAcidity)
	}
	if query.MaxAcidity != nil {
		add("acidity <= %s", *query.MaxAcidity)
	}
	if query.MinPrice != nil {
		add("price >= %s", *query.MinPrice)
	}
	if query.MaxPrice != nil {
		add("price <= %s", *query.MaxPrice)
	}
	if query.Origin != "" {
		add("origin = %s", query.Origin)
	}
	if query.Roast != "" {
		add("roast = %s", query.Roast)
	}
	if query.NameSubstring != "" {
		add("LOWER(name) LIKE '%%' || LOWER(%s) || '%%'", query.NameSubstring)
	}

	sqlText := ""
	for i, clause := range clauses {
		if i == 0 {
			sqlText += " WHERE " + clause
		} else {
			sqlText += " AND " + clause
		}
	}

	sqlText += " ORDER BY " + orderClause(query.SortKey)

	if query.Limit > 0 {
		args = append(args, query.Limit)
		sqlText += fmt.Sprintf(" LIMIT %s", placeholder(len(args)))
	}

	return sqlText, args
}

// orderClause maps a sort key to its ORDER BY expression. Ties break by ID
// so result order stays deterministic.
func orderClause(sortKey string) string {
	switch sortKey {
	case models.SortKeyPriceDesc:
		return "price DESC, id ASC"
	case models.SortKeyPriceAsc:
		return "price ASC, id ASC"
	default:
		return "popularity DESC, id ASC"
	}
}

// scanProduct scans a CatalogItem from sql.Rows using the productColumns order.
func scanProduct(rows *sql.Rows) (models.CatalogItem, error) {
	var item models.CatalogItem
	var processing, flavorTags, description sql.NullString
	err := rows.Scan(
		&item.ID, &item.Name, &item.Origin, &item.Roast, &processing, &item.FlavorType,
		&flavorTags, &item.Acidity, &item.Sweetness, &item.Body, &item.Price, &item.Popularity, &description,
	)
	if err != nil {
		return item, fmt.Errorf("scan product failed: %w", err)
	}
	item.Processing = processing.String
	item.Description = description.String
	if flavorTags.Valid && flavorTags.String != "" {
		if err := json.Unmarshal([]byte(flavorTags.String), &item.FlavorTags); err != nil {
			return item, fmt.Errorf("decode flavor tags failed: %w", err)
		}
	}
	return item, nil
}

// collectProducts drains rows into a slice of catalog items.
func collectProducts(rows *sql.Rows) ([]models.CatalogItem, error) {
	defer rows.Close()
	var items []models.CatalogItem
	for rows.Next() {
		item, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows failed: %w", err)
	}
	return items, nil
}

// scanOrder scans an Order from sql.Rows.
func scanOrder(rows *sql.Rows) (models.Order, error) {
	var o models.Order
	var itemsJSON string
	var phone, trackingNo sql.NullString
	err := rows.Scan(&o.ID, &o.MemberID, &itemsJSON, &o.Total, &o.Status, &phone, &trackingNo, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, fmt.Errorf("scan order failed: %w", err)
	}
	o.Phone = phone.String
	o.TrackingNo = trackingNo.String
	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
			return o, fmt.Errorf("decode order items failed: %w", err)
		}
	}
	return o, nil
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
