package services

import (
	"context"

	"canteen-api/models"

	"gorm.io/gorm"
)

const DefaultRecommendationLimit = 5

// MaxUnitsPerBuyer caps how much one buyer's orders of an item add to its
// popularity. Anonymous orders count as a single buyer.
const MaxUnitsPerBuyer = 5

// Recommendation is a menu item name with an optional popularity score.
// Score is nil for users without an order history.
type Recommendation struct {
	Item  string `json:"itemId"`
	Score *int64 `json:"score"`
}

type RecommendationService struct {
	db *gorm.DB
}

func NewRecommendationService(db *gorm.DB) *RecommendationService {
	return &RecommendationService{db: db}
}

type popularity struct {
	Name  string
	Units int64
}

// Recommend ranks items by units ordered across all buyers. Users with a
// history only get items they have never ordered.
func (s *RecommendationService) Recommend(ctx context.Context, userID *uint, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = DefaultRecommendationLimit
	}
	db := s.db.WithContext(ctx)

	perBuyer := db.Model(&models.OrderItem{}).
		Select("order_items.name AS name, COUNT(*) AS bought").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Group("orders.user_id, order_items.name")

	var ranked []popularity
	err := db.Table("(?) AS per_buyer", perBuyer).
		Select("name, SUM(CASE WHEN bought > ? THEN ? ELSE bought END) AS units", MaxUnitsPerBuyer, MaxUnitsPerBuyer).
		Group("name").
		Order("units desc, name").
		Scan(&ranked).Error
	if err != nil {
		return nil, storage("rank items", err)
	}

	seen := map[string]bool{}
	if userID != nil {
		var names []string
		err := db.Model(&models.OrderItem{}).
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("orders.user_id = ?", *userID).
			Distinct().
			Pluck("order_items.name", &names).Error
		if err != nil {
			return nil, storage("load user history", err)
		}
		for _, n := range names {
			seen[n] = true
		}
	}

	out := []Recommendation{}
	for _, p := range ranked {
		if len(out) == limit {
			break
		}
		if len(seen) == 0 {
			out = append(out, Recommendation{Item: p.Name})
			continue
		}
		if seen[p.Name] {
			continue
		}
		score := p.Units
		out = append(out, Recommendation{Item: p.Name, Score: &score})
	}
	return out, nil
}
