package catalog

import (
	"bytes"
	"context"
	"testing"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/models"
	"kafe-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newService(t *testing.T) (*Service, *livesync.Bus) {
	t.Helper()
	bus := livesync.NewBus()
	clock := testutil.NewClock(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	return NewService(testutil.OpenDB(t), bus, WithClock(clock.Now)), bus
}

func names(items []models.MenuItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestBuildPublicMenu(t *testing.T) {
	cats := []models.Category{
		{Name: "Kahveler", SortOrder: 0, IsActive: true},
		{Name: "Kış", SortOrder: 1, IsActive: false},
		{Name: "Tatlılar", SortOrder: 2, IsActive: true},
		{Name: "Boş", SortOrder: 3, IsActive: true},
	}
	items := []models.MenuItem{
		{Name: "Latte", Category: "Kahveler", IsAvailable: true},
		{Name: "Americano", Category: "Kahveler", IsAvailable: false},
		{Name: "Salep", Category: "Kış", IsAvailable: true},
		{Name: "Sufle", Category: "Tatlılar", IsAvailable: true},
		{Name: "Su", Category: "İçecekler", IsAvailable: true},
		{Name: "Ayran", Category: "", IsAvailable: true},
	}

	menu := BuildPublicMenu(cats, items)
	require.Len(t, menu, 3)
	assert.Equal(t, "Kahveler", menu[0].Category.Name)
	assert.Equal(t, []string{"Latte"}, names(menu[0].Items))
	assert.Equal(t, "Tatlılar", menu[1].Category.Name)
	assert.Equal(t, OtherCategory, menu[2].Category.Name)
	assert.Equal(t, []string{"Ayran", "Su"}, names(menu[2].Items))
}

func TestMenuItemCRUD(t *testing.T) {
	s, bus := newService(t)
	ctx := context.Background()
	signals, cancel := bus.Subscribe(livesync.TopicCatalog)
	defer cancel()

	_, err := s.CreateMenuItem(ctx, MenuItemInput{Name: "  ", Price: 10})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = s.CreateMenuItem(ctx, MenuItemInput{Name: "Latte", Price: -1})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	m, err := s.CreateMenuItem(ctx, MenuItemInput{Name: " Latte ", Price: 85, Category: "Kahveler", Tags: []string{"sıcak", " "}, IsAvailable: true})
	require.NoError(t, err)
	assert.Equal(t, "Latte", m.Name)
	assert.Equal(t, []string{"sıcak"}, m.Tags)
	assert.Equal(t, livesync.TopicCatalog, (<-signals).Topic)

	m, err = s.ToggleAvailability(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, m.IsAvailable)

	got, err := s.ItemsByID(ctx, []uint{m.ID, 77})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 85.0, got[m.ID].Price)
	assert.Equal(t, []string{"sıcak"}, got[m.ID].Tags)

	updated, err := s.UpdateMenuItem(ctx, m.ID, MenuItemInput{Name: "Latte", Price: 90, Category: "Kahveler", IsAvailable: true})
	require.NoError(t, err)
	assert.Equal(t, 90.0, updated.Price)

	require.NoError(t, s.DeleteMenuItem(ctx, m.ID))
	_, err = s.GetMenuItem(ctx, m.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, s.DeleteMenuItem(ctx, m.ID), apperr.ErrNotFound)
}

func TestCategories(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	a, err := s.CreateCategory(ctx, CategoryInput{Name: "Kahveler", SortOrder: 0, IsActive: true})
	require.NoError(t, err)
	_, err = s.CreateCategory(ctx, CategoryInput{Name: "Tatlılar", SortOrder: 1, IsActive: true})
	require.NoError(t, err)
	c, err := s.CreateCategory(ctx, CategoryInput{Name: "Soğuk", SortOrder: 2, IsActive: true})
	require.NoError(t, err)

	_, err = s.CreateCategory(ctx, CategoryInput{Name: "Kahveler"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	list, err := s.MoveCategory(ctx, c.ID, Up)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kahveler", "Soğuk", "Tatlılar"}, []string{list[0].Name, list[1].Name, list[2].Name})

	list, err = s.MoveCategory(ctx, a.ID, Up)
	require.NoError(t, err, "top category stays")
	assert.Equal(t, "Kahveler", list[0].Name)

	_, err = s.MoveCategory(ctx, a.ID, "sideways")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = s.MoveCategory(ctx, 99, Down)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.CreateMenuItem(ctx, MenuItemInput{Name: "Mocha", Price: 95, Category: "Kahveler", IsAvailable: true})
	require.NoError(t, err)
	_, err = s.UpdateCategory(ctx, a.ID, CategoryInput{Name: "Sıcak Kahveler", IsActive: true})
	require.NoError(t, err)
	items, err := s.ListMenuItems(ctx, "Sıcak Kahveler")
	require.NoError(t, err)
	assert.Len(t, items, 1, "rename carries items")

	toggled, err := s.ToggleCategory(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	menu, err := s.PublicMenu(ctx)
	require.NoError(t, err)
	assert.Empty(t, menu)

	require.NoError(t, s.DeleteCategory(ctx, a.ID))
	menu, err = s.PublicMenu(ctx)
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, OtherCategory, menu[0].Category.Name)
}

func xlsx(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", addr, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportMenuXLSX(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, err := s.CreateCategory(ctx, CategoryInput{Name: "Kahveler", IsActive: true})
	require.NoError(t, err)
	_, err = s.CreateMenuItem(ctx, MenuItemInput{Name: "Türk Kahvesi", Price: 50, Category: "Kahveler", IsAvailable: true})
	require.NoError(t, err)

	file := xlsx(t, [][]any{
		{"Ürün Adı", "Kategori", "Fiyat", "Açıklama", "Süre", "Serviste"},
		{"TÜRK KAHVESİ", "kahveler", "65,50", "", "5", "evet"},
		{"Cheesecake", "Tatlılar", "₺120", "Limonlu", "", "hayır"},
		{"Bozuk", "Tatlılar", "bedava", "", "", ""},
		{"", "", "", "", "", ""},
	})

	res, err := s.ImportMenuXLSX(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.CategoriesCreated)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 4, res.Skipped[0].Row)

	coffee, err := s.ListMenuItems(ctx, "Kahveler")
	require.NoError(t, err)
	require.Len(t, coffee, 1)
	assert.Equal(t, "Türk Kahvesi", coffee[0].Name)
	assert.Equal(t, 65.5, coffee[0].Price)
	assert.Equal(t, 5, coffee[0].PreparationTime)

	desserts, err := s.ListMenuItems(ctx, "Tatlılar")
	require.NoError(t, err)
	require.Len(t, desserts, 1)
	assert.False(t, desserts[0].IsAvailable)
	assert.Equal(t, 120.0, desserts[0].Price)

	_, err = s.ImportMenuXLSX(ctx, bytes.NewBufferString("not a spreadsheet"))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestNormalizeTurkish(t *testing.T) {
	assert.Equal(t, "sutlu turk kahvesi", normalizeTurkish("  SÜTLÜ   TÜRK KAHVESİ "))
	assert.Equal(t, "cikolatali", normalizeTurkish("Çikolatalı"))
}

func TestParsePrice(t *testing.T) {
	for in, want := range map[string]float64{"45": 45, "45.5": 45.5, "45,50": 45.5, "₺1.250,00": 1250, "30 TL": 30} {
		got, err := parsePrice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
