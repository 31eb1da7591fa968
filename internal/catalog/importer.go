package catalog

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/audit"
	"kafe-backend/internal/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// normalizeTurkish: Türkçe karakterleri ASCII karşılıklarına çevirir
// Örn: "SÜTLÜ TÜRK KAHVESİ" -> "sutlu turk kahvesi"
func normalizeTurkish(s string) string {
	replacements := map[rune]string{
		'ç': "c", 'Ç': "C",
		'ğ': "g", 'Ğ': "G",
		'ı': "i", 'İ': "I",
		'ö': "o", 'Ö': "O",
		'ş': "s", 'Ş': "S",
		'ü': "u", 'Ü': "U",
	}

	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if rep, ok := replacements[r]; ok {
			b.WriteString(rep)
		} else {
			b.WriteRune(r)
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(b.String()), " "))
}

// Kolon sırası: ad, kategori, fiyat, açıklama, hazırlık süresi, serviste
const (
	colName = iota
	colCategory
	colPrice
	colDescription
	colPrepTime
	colAvailable
)

type SkippedRow struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type ImportResult struct {
	Created           int          `json:"created"`
	Updated           int          `json:"updated"`
	CategoriesCreated int          `json:"categories_created"`
	Skipped           []SkippedRow `json:"skipped"`
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func isHeader(row []string) bool {
	first := normalizeTurkish(cell(row, colName))
	return strings.Contains(first, "urun") || strings.Contains(first, "name") || first == "ad"
}

// parsePrice "45", "45.5", "45,50" ve "₺45,50" kabul eder.
func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(s, "TL"), "₺"))
	s = strings.TrimSpace(strings.TrimSuffix(s, "₺"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}

func parseAvailable(s string) bool {
	switch normalizeTurkish(s) {
	case "hayir", "yok", "false", "0", "pasif", "no":
		return false
	}
	return true
}

type importRow struct {
	line int
	in   MenuItemInput
}

func parseRows(rows [][]string) ([]importRow, []SkippedRow) {
	var (
		out     []importRow
		skipped []SkippedRow
	)
	start := 0
	if len(rows) > 0 && isHeader(rows[0]) {
		start = 1
	}
	for i := start; i < len(rows); i++ {
		row, line := rows[i], i+1
		name := cell(row, colName)
		if name == "" {
			continue
		}
		price, err := parsePrice(cell(row, colPrice))
		if err != nil || price < 0 {
			skipped = append(skipped, SkippedRow{Row: line, Reason: "geçersiz fiyat: " + cell(row, colPrice)})
			continue
		}
		prep := 0
		if v := cell(row, colPrepTime); v != "" {
			if prep, err = strconv.Atoi(v); err != nil || prep < 0 {
				skipped = append(skipped, SkippedRow{Row: line, Reason: "geçersiz hazırlık süresi: " + v})
				continue
			}
		}
		out = append(out, importRow{line: line, in: MenuItemInput{
			Name:            name,
			Category:        cell(row, colCategory),
			Price:           price,
			Description:     cell(row, colDescription),
			PreparationTime: prep,
			IsAvailable:     parseAvailable(cell(row, colAvailable)),
		}})
	}
	return out, skipped
}

// ImportMenuXLSX XLSX dosyasının ilk sayfasını okur, ürünleri isimle
// (büyük/küçük harf ve Türkçe karakter duyarsız) ekler ya da günceller.
// Olmayan kategoriler listenin sonuna eklenir.
func (s *Service) ImportMenuXLSX(ctx context.Context, r io.Reader) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: excel dosyası okunamadı: %v", apperr.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{}, fmt.Errorf("%w: excel dosyasında sayfa yok", apperr.ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: sayfa okunamadı: %v", apperr.ErrInvalidInput, err)
	}
	parsed, skipped := parseRows(rows)
	res := ImportResult{Skipped: skipped}
	if res.Skipped == nil {
		res.Skipped = []SkippedRow{}
	}
	if len(parsed) == 0 {
		return res, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.MenuItem
		if err := tx.Find(&existing).Error; err != nil {
			return err
		}
		byName := make(map[string]models.MenuItem, len(existing))
		for _, m := range existing {
			byName[normalizeTurkish(m.Name)] = m
		}

		var cats []models.Category
		if err := tx.Order("sort_order ASC").Find(&cats).Error; err != nil {
			return err
		}
		known := make(map[string]string, len(cats))
		nextOrder := 0
		for _, c := range cats {
			known[normalizeTurkish(c.Name)] = c.Name
			if c.SortOrder >= nextOrder {
				nextOrder = c.SortOrder + 1
			}
		}

		now := s.now()
		for _, row := range parsed {
			in := row.in
			if in.Category != "" {
				key := normalizeTurkish(in.Category)
				if name, ok := known[key]; ok {
					in.Category = name
				} else {
					cat := models.Category{Name: in.Category, SortOrder: nextOrder, IsActive: true, CreatedAt: now, UpdatedAt: now}
					if err := tx.Create(&cat).Error; err != nil {
						return err
					}
					known[key] = cat.Name
					nextOrder++
					res.CategoriesCreated++
				}
			}

			key := normalizeTurkish(in.Name)
			if m, ok := byName[key]; ok {
				before := m
				m.Category, m.Price, m.PreparationTime, m.IsAvailable = in.Category, in.Price, in.PreparationTime, in.IsAvailable
				if in.Description != "" {
					m.Description = in.Description
				}
				m.UpdatedAt = now
				if err := tx.Save(&m).Error; err != nil {
					return err
				}
				byName[key] = m
				res.Updated++
				if err := audit.Write(ctx, tx, audit.Entry{
					EntityType: audit.EntityMenuItem, EntityID: m.ID, Action: models.AuditActionUpdate,
					Description: "Excel ile güncellendi: " + m.Name, Before: before, After: m,
				}); err != nil {
					return err
				}
				continue
			}

			m := models.MenuItem{
				Name: in.Name, Category: in.Category, Price: in.Price, Description: in.Description,
				PreparationTime: in.PreparationTime, IsAvailable: in.IsAvailable,
				Ingredients: []string{}, Tags: []string{}, CreatedAt: now, UpdatedAt: now,
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			byName[key] = m
			res.Created++
			if err := audit.Write(ctx, tx, audit.Entry{
				EntityType: audit.EntityMenuItem, EntityID: m.ID, Action: models.AuditActionCreate,
				Description: "Excel ile eklendi: " + m.Name, After: m,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, apperr.Store("import menu", err)
	}
	s.changed()
	return res, nil
}
