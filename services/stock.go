package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"canteen-api/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MenuPublisher receives the post-update state of menu items. Implementations
// must not block the caller.
type MenuPublisher interface {
	PublishMenu(items []models.MenuItem)
}

type nopPublisher struct{}

func (nopPublisher) PublishMenu([]models.MenuItem) {}

// StockLevel is one entry of an availability update
type StockLevel struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type AvailabilityResult struct {
	Updated []models.MenuItem `json:"updated"`
	Unknown []string          `json:"unknown"` // names that matched no menu item
}

// Reservation is the outcome of a successful Reserve call
type Reservation struct {
	Units   []models.MenuItem // one snapshot per requested unit, request order
	Touched []models.MenuItem // distinct items after the decrement
}

// Total is the price of all reserved units
func (r *Reservation) Total() int64 {
	var total int64
	for _, u := range r.Units {
		total += u.Price
	}
	return total
}

type NewMenuItem struct {
	Name     string
	Category string
	Price    int64
	Quantity int
}

type StockService struct {
	db        *gorm.DB
	publisher MenuPublisher
	logger    *zap.Logger
}

func NewStockService(db *gorm.DB, publisher MenuPublisher, logger *zap.Logger) *StockService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{db: db, publisher: publisher, logger: logger}
}

// SetAvailability replaces the whole menu stock. Every item is first reset to
// zero; listed items then get their quantity. Names that match nothing are
// reported back in Unknown.
func (s *StockService) SetAvailability(ctx context.Context, levels []StockLevel) (*AvailabilityResult, error) {
	want := make(map[string]int, len(levels))
	var names []string
	for _, l := range levels {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			return nil, validationf("item name is required")
		}
		if l.Quantity < 0 {
			return nil, validationf("quantity for %q cannot be negative", name)
		}
		if _, seen := want[name]; !seen {
			names = append(names, name)
		}
		want[name] = l.Quantity // last entry wins
	}

	result := &AvailabilityResult{Updated: []models.MenuItem{}, Unknown: []string{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Model(&models.MenuItem{}).
			Updates(map[string]any{"quantity": 0, "availability": false}).Error; err != nil {
			return err
		}
		if len(names) == 0 {
			return nil
		}

		var existing []string
		if err := tx.Model(&models.MenuItem{}).Where("name IN ?", names).Pluck("name", &existing).Error; err != nil {
			return err
		}
		found := make(map[string]bool, len(existing))
		for _, n := range existing {
			found[n] = true
		}

		var matched []string
		for _, name := range names {
			if !found[name] {
				result.Unknown = append(result.Unknown, name)
				continue
			}
			q := want[name]
			if err := tx.Model(&models.MenuItem{}).Where("name = ?", name).
				Updates(map[string]any{"quantity": q, "availability": q > 0}).Error; err != nil {
				return err
			}
			matched = append(matched, name)
		}
		if len(matched) == 0 {
			return nil
		}
		return tx.Where("name IN ?", matched).Order("name").Find(&result.Updated).Error
	})
	if err != nil {
		return nil, storage("set availability", err)
	}

	if len(result.Unknown) > 0 {
		s.logger.Warn("availability update named unknown items", zap.Strings("unknown", result.Unknown))
	}
	s.logger.Info("menu availability replaced",
		zap.Int("updated", len(result.Updated)),
		zap.Int("unknown", len(result.Unknown)))
	s.publisher.PublishMenu(result.Updated)
	return result, nil
}

// Reserve decrements one unit of stock per name inside tx. Items are taken in
// name order and it fails with OutOfStockError on the first one that cannot
// cover its demand; the caller must then roll tx back so that no decrement of
// this call survives.
func (s *StockService) Reserve(tx *gorm.DB, names []string) (*Reservation, error) {
	if len(names) == 0 {
		return nil, validationf("at least one item is required")
	}
	demand := make(map[string]int, len(names))
	var distinct []string
	requested := make([]string, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, validationf("item name is required")
		}
		if demand[n] == 0 {
			distinct = append(distinct, n)
		}
		demand[n]++
		requested[i] = n
	}

	// rows are locked in name order so crossing orders cannot deadlock
	for _, name := range slices.Sorted(slices.Values(distinct)) {
		n := demand[name]
		res := tx.Model(&models.MenuItem{}).
			Where("name = ? AND quantity >= ?", name, n).
			Update("quantity", gorm.Expr("quantity - ?", n))
		if res.Error != nil {
			return nil, storage("reserve "+name, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, &OutOfStockError{Item: name}
		}
		// separate statement: MySQL evaluates SET left to right, others use the old row
		if err := tx.Model(&models.MenuItem{}).Where("name = ?", name).
			Update("availability", gorm.Expr("quantity > 0")).Error; err != nil {
			return nil, storage("reserve "+name, err)
		}
	}

	var touched []models.MenuItem
	if err := tx.Where("name IN ?", distinct).Order("name").Find(&touched).Error; err != nil {
		return nil, storage("reload reserved items", err)
	}
	byName := make(map[string]models.MenuItem, len(touched))
	for _, it := range touched {
		byName[it.Name] = it
	}
	units := make([]models.MenuItem, len(requested))
	for i, n := range requested {
		units[i] = byName[n]
	}
	return &Reservation{Units: units, Touched: touched}, nil
}

// ReserveItems runs Reserve in its own transaction and broadcasts the result
func (s *StockService) ReserveItems(ctx context.Context, names []string) (*Reservation, error) {
	var r *Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		r, err = s.Reserve(tx, names)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publisher.PublishMenu(r.Touched)
	return r, nil
}

// ListMenu returns menu items, optionally filtered by category or availability
func (s *StockService) ListMenu(ctx context.Context, category string, availableOnly bool) ([]models.MenuItem, error) {
	query := s.db.WithContext(ctx)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if availableOnly {
		query = query.Where("availability = ?", true)
	}
	items := []models.MenuItem{}
	if err := query.Order("category, name").Find(&items).Error; err != nil {
		return nil, storage("list menu", err)
	}
	return items, nil
}

func (s *StockService) AddMenuItem(ctx context.Context, in NewMenuItem) (*models.MenuItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return nil, validationf("item name is required")
	case in.Price < 0:
		return nil, validationf("price cannot be negative")
	case in.Quantity < 0:
		return nil, validationf("quantity cannot be negative")
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.MenuItem{}).Where("name = ?", in.Name).Count(&count).Error; err != nil {
		return nil, storage("check menu item", err)
	}
	if count > 0 {
		return nil, ErrConflict
	}

	item := models.MenuItem{
		Name:         in.Name,
		Category:     in.Category,
		Price:        in.Price,
		Quantity:     in.Quantity,
		Availability: in.Quantity > 0,
	}
	if err := db.Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		return nil, storage("create menu item", err)
	}
	s.logger.Info("menu item added", zap.String("name", item.Name), zap.Int("quantity", item.Quantity))
	s.publisher.PublishMenu([]models.MenuItem{item})
	return &item, nil
}
