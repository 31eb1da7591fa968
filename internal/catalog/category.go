package catalog

import (
	"context"
	"fmt"
	"strings"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/audit"
	"kafe-backend/internal/models"

	"gorm.io/gorm"
)

type CategoryInput struct {
	Name        string
	Description string
	Image       string
	Color       string
	SortOrder   int
	IsActive    bool
}

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	var list []models.Category
	err := s.db.WithContext(ctx).Order("sort_order ASC, name ASC").Find(&list).Error
	return list, apperr.Store("list categories", err)
}

func nameTaken(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	q := tx.Model(&models.Category{}).Where("name = ?", name)
	if exceptID > 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %s", apperr.ErrConflict, name)
	}
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.Category{}, fmt.Errorf("%w: kategori adı zorunlu", apperr.ErrInvalidInput)
	}
	now := s.now()
	cat := models.Category{
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
		Color:       in.Color,
		SortOrder:   in.SortOrder,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := nameTaken(tx, cat.Name, 0); err != nil {
			return err
		}
		if err := tx.Create(&cat).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityCategory,
			EntityID:    cat.ID,
			Action:      models.AuditActionCreate,
			Description: "Kategori eklendi: " + cat.Name,
			After:       cat,
		})
	})
	if err != nil {
		return models.Category{}, apperr.Store("create category", err)
	}
	s.changed()
	return cat, nil
}

// UpdateCategory kategoriyi düzenler, isim değişirse ürünler de taşınır.
func (s *Service) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (models.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return models.Category{}, fmt.Errorf("%w: kategori adı zorunlu", apperr.ErrInvalidInput)
	}
	var cat models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cat, id).Error; err != nil {
			return err
		}
		before := cat
		if in.Name != cat.Name {
			if err := nameTaken(tx, in.Name, id); err != nil {
				return err
			}
			err := tx.Model(&models.MenuItem{}).Where("category = ?", cat.Name).
				Update("category", in.Name).Error
			if err != nil {
				return err
			}
		}
		cat.Name, cat.Description, cat.Image, cat.Color = in.Name, in.Description, in.Image, in.Color
		cat.SortOrder, cat.IsActive = in.SortOrder, in.IsActive
		cat.UpdatedAt = s.now()
		if err := tx.Save(&cat).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityCategory,
			EntityID:    cat.ID,
			Action:      models.AuditActionUpdate,
			Description: "Kategori güncellendi: " + cat.Name,
			Before:      before,
			After:       cat,
		})
	})
	if err != nil {
		return models.Category{}, apperr.Store("update category", err)
	}
	s.changed()
	return cat, nil
}

// DeleteCategory kategoriyi siler, ürünleri menüde OtherCategory altına düşer.
func (s *Service) DeleteCategory(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.First(&cat, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&cat).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityCategory,
			EntityID:    cat.ID,
			Action:      models.AuditActionDelete,
			Description: "Kategori silindi: " + cat.Name,
			Before:      cat,
		})
	})
	if err != nil {
		return apperr.Store("delete category", err)
	}
	s.changed()
	return nil
}

func (s *Service) ToggleCategory(ctx context.Context, id uint) (models.Category, error) {
	var cat models.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cat, id).Error; err != nil {
			return err
		}
		before := cat
		cat.IsActive = !cat.IsActive
		cat.UpdatedAt = s.now()
		if err := tx.Model(&cat).Updates(map[string]any{"is_active": cat.IsActive, "updated_at": cat.UpdatedAt}).Error; err != nil {
			return err
		}
		return audit.Write(ctx, tx, audit.Entry{
			EntityType:  audit.EntityCategory,
			EntityID:    cat.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("%s: aktif %v", cat.Name, cat.IsActive),
			Before:      before,
			After:       cat,
		})
	})
	if err != nil {
		return models.Category{}, apperr.Store("toggle category", err)
	}
	s.changed()
	return cat, nil
}

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// MoveCategory komşu kategoriyle sırayı değiştirir. Uçlardan taşma etkisiz.
func (s *Service) MoveCategory(ctx context.Context, id uint, dir Direction) ([]models.Category, error) {
	if dir != Up && dir != Down {
		return nil, fmt.Errorf("%w: yön up veya down olmalı", apperr.ErrInvalidInput)
	}
	var list []models.Category
	moved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("sort_order ASC, name ASC").Find(&list).Error; err != nil {
			return err
		}
		idx := -1
		for i, c := range list {
			if c.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return apperr.ErrNotFound
		}
		target := idx - 1
		if dir == Down {
			target = idx + 1
		}
		if target < 0 || target >= len(list) {
			return nil
		}

		a, b := list[idx], list[target]
		// sıra numaraları eşitse swap etkisiz kalır, konumları yaz
		ao, bo := b.SortOrder, a.SortOrder
		if ao == bo {
			ao, bo = target, idx
		}
		now := s.now()
		if err := tx.Model(&models.Category{}).Where("id = ?", a.ID).Updates(map[string]any{"sort_order": ao, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Category{}).Where("id = ?", b.ID).Updates(map[string]any{"sort_order": bo, "updated_at": now}).Error; err != nil {
			return err
		}
		moved = true
		return tx.Order("sort_order ASC, name ASC").Find(&list).Error
	})
	if err != nil {
		return nil, apperr.Store("move category", err)
	}
	if moved {
		s.changed()
	}
	return list, nil
}
