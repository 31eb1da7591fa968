// Package catalog menüyü yönetir: ürünler, kategoriler ve müşteriye
// gösterilen menü.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/audit"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/models"

	"gorm.io/gorm"
)

// OtherCategory kategorisi silinmiş ürünlerin toplandığı başlık.
const OtherCategory = "Diğer"

type Service struct {
	db  *gorm.DB
	bus *livesync.Bus
	now func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(db *gorm.DB, bus *livesync.Bus, opts ...Option) *Service {
	s := &Service{db: db, bus: bus, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) changed() {
	s.bus.Publish(livesync.Signal{Kind: livesync.KindCollectionChanged, Topic: livesync.TopicCatalog, At: s.now()})
}

// ---- menü ürünleri ----

type MenuItemInput struct {
	Name            string
	Description     string
	Price           float64
	Category        string
	Image           string
	Ingredients     []string
	Tags            []string
	PreparationTime int
	IsAvailable     bool
}

func (in *MenuItemInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: ürün adı zorunlu", apperr.ErrInvalidInput)
	case in.Price < 0:
		return fmt.Errorf("%w: fiyat negatif olamaz", apperr.ErrInvalidInput)
	case in.PreparationTime < 0:
		return fmt.Errorf("%w: hazırlık süresi negatif olamaz", apperr.ErrInvalidInput)
	}
	in.Ingredients = cleanList(in.Ingredients)
	in.Tags = cleanList(in.Tags)
	return nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ListMenuItems ürünleri isim sırasıyla döner, category verilirse sadece onu.
func (s *Service) ListMenuItems(ctx context.Context, category string) ([]models.MenuItem, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	var list []models.MenuItem
	return list, apperr.Store("list menu items", q.Find(&list).Error)
}

func (s *Service) GetMenuItem(ctx context.Context, id uint) (models.MenuItem, error) {
	var m models.MenuItem
	err := s.db.WithContext(ctx).First(&m, id).Error
	return m, apperr.Store("get menu item", err)
}

// ItemsByID ürünleri ID ile eşler, bilinmeyen ID haritada olmaz.
func (s *Service) ItemsByID(ctx context.Context, ids []uint) (map[uint]models.MenuItem, error) {
	out := make(map[uint]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.MenuItem
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, apperr.Store("menu items by id", err)
	}
	for _, m := range list {
		out[m.ID] = m
	}
	return out, nil
}

func (s *Service) CreateMenuItem(ctx context.Context, in MenuItemInput) (models.MenuItem, error) {
	if err := in.normalize(); err != nil {
		return models.MenuItem{}, err
	}
	now := s.now()
	m := models.MenuItem{
		Name:            in.Name,
		Description:     in.Description,
		Price:           in.Price,
		Category:        in.Category,
		Image:           in.Image,
		Ingredients:     in.Ingredients,
		Tags:            in.Tags,
		PreparationTime: in.PreparationTime,
		IsAvailable:     in.IsAvailable,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityMenuItem,
			EntityID:    m.ID,
			Action:      models.AuditActionCreate,
			Description: "Ürün eklendi: " + m.Name,
			After:       m,
		})
	})
	if err != nil {
		return models.MenuItem{}, apperr.Store("create menu item", err)
	}
	s.changed()
	return m, nil
}

// UpdateMenuItem ürünün düzenlenebilir alanlarını değiştirir.
func (s *Service) UpdateMenuItem(ctx context.Context, id uint, in MenuItemInput) (models.MenuItem, error) {
	if err := in.normalize(); err != nil {
		return models.MenuItem{}, err
	}
	var m models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, id).Error; err != nil {
			return err
		}
		before := m
		m.Name, m.Description, m.Price = in.Name, in.Description, in.Price
		m.Category, m.Image = in.Category, in.Image
		m.Ingredients, m.Tags = in.Ingredients, in.Tags
		m.PreparationTime, m.IsAvailable = in.PreparationTime, in.IsAvailable
		m.UpdatedAt = s.now()
		if err := tx.Save(&m).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityMenuItem,
			EntityID:    m.ID,
			Action:      models.AuditActionUpdate,
			Description: "Ürün güncellendi: " + m.Name,
			Before:      before,
			After:       m,
		})
	})
	if err != nil {
		return models.MenuItem{}, apperr.Store("update menu item", err)
	}
	s.changed()
	return m, nil
}

func (s *Service) DeleteMenuItem(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.MenuItem
		if err := tx.First(&m, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&m).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityMenuItem,
			EntityID:    m.ID,
			Action:      models.AuditActionDelete,
			Description: "Ürün silindi: " + m.Name,
			Before:      m,
		})
	})
	if err != nil {
		return apperr.Store("delete menu item", err)
	}
	s.changed()
	return nil
}

func (s *Service) ToggleAvailability(ctx context.Context, id uint) (models.MenuItem, error) {
	var m models.MenuItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, id).Error; err != nil {
			return err
		}
		before := m
		m.IsAvailable = !m.IsAvailable
		m.UpdatedAt = s.now()
		if err := tx.Model(&m).Updates(map[string]any{"is_available": m.IsAvailable, "updated_at": m.UpdatedAt}).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityMenuItem,
			EntityID:    m.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("%s: servis %v", m.Name, m.IsAvailable),
			Before:      before,
			After:       m,
		})
	})
	if err != nil {
		return models.MenuItem{}, apperr.Store("toggle menu item", err)
	}
	s.changed()
	return m, nil
}

// ---- public menü ----

type MenuSection struct {
	Category models.Category   `json:"category"`
	Items    []models.MenuItem `json:"items"`
}

// PublicMenu satıştaki ürünleri kategori sırasıyla gruplar. Pasif
// kategorinin ürünleri gizlenir, kategorisi silinenler en sonda OtherCategory
// altında listelenir.
func (s *Service) PublicMenu(ctx context.Context) ([]MenuSection, error) {
	var (
		cats  []models.Category
		items []models.MenuItem
	)
	if err := s.db.WithContext(ctx).Order("sort_order ASC, name ASC").Find(&cats).Error; err != nil {
		return nil, apperr.Store("public menu categories", err)
	}
	if err := s.db.WithContext(ctx).Where("is_available = ?", true).Order("name ASC").Find(&items).Error; err != nil {
		return nil, apperr.Store("public menu items", err)
	}
	return BuildPublicMenu(cats, items), nil
}

func BuildPublicMenu(cats []models.Category, items []models.MenuItem) []MenuSection {
	byName := make(map[string]int, len(cats))
	sections := make([]MenuSection, 0, len(cats)+1)
	for _, c := range cats {
		byName[c.Name] = -1
		if !c.IsActive {
			continue
		}
		byName[c.Name] = len(sections)
		sections = append(sections, MenuSection{Category: c, Items: []models.MenuItem{}})
	}

	var other []models.MenuItem
	for _, it := range items {
		if !it.IsAvailable {
			continue
		}
		idx, known := byName[it.Category]
		switch {
		case !known:
			other = append(other, it)
		case idx >= 0:
			sections[idx].Items = append(sections[idx].Items, it)
		}
	}

	out := sections[:0]
	for _, sec := range sections {
		if len(sec.Items) > 0 {
			out = append(out, sec)
		}
	}
	if len(other) > 0 {
		sort.SliceStable(other, func(i, j int) bool { return other[i].Name < other[j].Name })
		out = append(out, MenuSection{Category: models.Category{Name: OtherCategory, IsActive: true}, Items: other})
	}
	return out
}

func (s *Service) WatchPublicMenu(ctx context.Context) <-chan livesync.Update[[]MenuSection] {
	return livesync.Watch(ctx, s.bus, s.PublicMenu, livesync.TopicCatalog)
}
