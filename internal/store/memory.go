// Package store provides storage backends for the FeiTime storefront.
//
// This file implements an in-memory store used in tests and when no
// database DSN is configured.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/feitime/storefront/internal/models"
)

// InMemoryStore keeps products, members and orders in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	products []models.CatalogItem
	members  map[string]models.Member // keyed by email
	orders   map[string]models.Order
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		members: make(map[string]models.Member),
		orders:  make(map[string]models.Order),
	}
}

// AddProduct inserts a product. Intended for tests and seeding.
func (s *InMemoryStore) AddProduct(item models.CatalogItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, item)
}

// AddMember inserts a member. Intended for tests and seeding.
func (s *InMemoryStore) AddMember(m models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.Email] = m
}

func (s *InMemoryStore) Search(ctx context.Context, query models.SearchQuery) ([]models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.CatalogItem
	for _, item := range s.products {
		if matchesQuery(item, query) {
			items = append(items, item)
		}
	}
	sortItems(items, query.SortKey)
	if query.Limit > 0 && len(items) > query.Limit {
		items = items[:query.Limit]
	}
	return items, nil
}

func matchesQuery(item models.CatalogItem, query models.SearchQuery) bool {
	if query.Category != "" && item.FlavorType != query.Category {
		return false
	}
	if query.MinAcidity != nil && item.Acidity < *query.MinAcidity {
		return false
	}
	if query.MaxAcidity != nil && item.Acidity > *query.MaxAcidity {
		return false
	}
	if query.MinPrice != nil && item.Price < *query.MinPrice {
		return false
	}
	if query.MaxPrice != nil && item.Price > *query.MaxPrice {
		return false
	}
	if query.Origin != "" && item.Origin != query.Origin {
		return false
	}
	if query.Roast != "" && item.Roast != query.Roast {
		return false
	}
	if query.NameSubstring != "" &&
		!strings.Contains(strings.ToLower(item.Name), strings.ToLower(query.NameSubstring)) {
		return false
	}
	return true
}

func sortItems(items []models.CatalogItem, sortKey string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch sortKey {
		case models.SortKeyPriceDesc:
			if a.Price != b.Price {
				return a.Price > b.Price
			}
		case models.SortKeyPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		default:
			if a.Popularity != b.Popularity {
				return a.Popularity > b.Popularity
			}
		}
		return a.ID < b.ID
	})
}

func (s *InMemoryStore) GetProduct(ctx context.Context, id int64) (*models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.products {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) ListProducts(ctx context.Context, limit, offset int) ([]models.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.CatalogItem, len(s.products))
	copy(items, s.products)
	sortItems(items, models.SortKeyPopularityDesc)
	if offset >= len(items) {
		return nil, nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *InMemoryStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.members[email]; ok {
		found := m
		return &found, nil
	}
	return nil, nil
}

func (s *InMemoryStore) SaveOrder(ctx context.Context, order models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}

func (s *InMemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.orders[id]; ok {
		found := o
		return &found, nil
	}
	return nil, nil
}

func (s *InMemoryStore) ListOrdersByMember(ctx context.Context, memberID string) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var orders []models.Order
	for _, o := range s.orders {
		if o.MemberID == memberID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
