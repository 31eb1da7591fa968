// Package seed YAML dosyasından demo ya da başlangıç verisi yükler.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"kafe-backend/internal/apperr"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/models"
	"kafe-backend/internal/orders"
	"kafe-backend/internal/status"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

type File struct {
	Tables     []Table    `yaml:"tables"`
	Categories []Category `yaml:"categories"`
	MenuItems  []MenuItem `yaml:"menu_items"`
	Staff      []Staff    `yaml:"staff"`
	Orders     []Order    `yaml:"orders"`
}

type Table struct {
	Number      int    `yaml:"number"`
	Capacity    int    `yaml:"capacity"`
	Status      string `yaml:"status,omitempty"`
	Description string `yaml:"description,omitempty"`
	X           int    `yaml:"x,omitempty"`
	Y           int    `yaml:"y,omitempty"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Color       string `yaml:"color,omitempty"`
	Inactive    bool   `yaml:"inactive,omitempty"`
}

type MenuItem struct {
	Name            string   `yaml:"name"`
	Category        string   `yaml:"category"`
	Price           float64  `yaml:"price"`
	Description     string   `yaml:"description,omitempty"`
	PreparationTime int      `yaml:"preparation_time,omitempty"`
	Tags            []string `yaml:"tags,omitempty"`
	Unavailable     bool     `yaml:"unavailable,omitempty"`
}

type Staff struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Phone    string `yaml:"phone,omitempty"`
	Position string `yaml:"position,omitempty"`
	Role     string `yaml:"role,omitempty"`
	OnShift  bool   `yaml:"on_shift,omitempty"`
}

// Order geçmiş sipariş. Zamanı ya status.Normalize'ın kabul ettiği herhangi
// biçimde CreatedAt ya da yükleme anına göre Ago.
type Order struct {
	Table     int              `yaml:"table"`
	Status    string           `yaml:"status,omitempty"`
	CreatedAt status.Timestamp `yaml:"created_at,omitempty"`
	Ago       string           `yaml:"ago,omitempty"`
	Customer  string           `yaml:"customer,omitempty"`
	Items     []OrderItem      `yaml:"items"`
}

type OrderItem struct {
	Name     string   `yaml:"name"`
	Quantity int      `yaml:"quantity"`
	Price    *float64 `yaml:"price,omitempty"` // yoksa menü fiyatı
}

func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, fmt.Errorf("%w: seed dosyası okunamadı: %v", apperr.ErrInvalidInput, err)
	}
	return &f, nil
}

func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Decode(fh)
}

type Result struct {
	Tables     int `json:"tables"`
	Categories int `json:"categories"`
	MenuItems  int `json:"menu_items"`
	Staff      int `json:"staff"`
	Orders     int `json:"orders"`
}

func (r Result) String() string {
	return fmt.Sprintf("%d masa, %d kategori, %d ürün, %d personel, %d sipariş",
		r.Tables, r.Categories, r.MenuItems, r.Staff, r.Orders)
}

// Apply f'i tek transaction içinde yazar. Kayıtlar doğal anahtarlarıyla
// eşlenir (masa numarası, kategori ve ürün adı, personel e-postası, sipariş
// numarası), aynı dosya iki kez uygulanınca bir şey değişmez. Ago ile
// verilen siparişler her çalışmada yeni zamana düşer ve tekrar eklenir.
func Apply(ctx context.Context, db *gorm.DB, f *File, now time.Time) (Result, error) {
	var res Result
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []func(*gorm.DB, *File, time.Time, *Result) error{
			applyTables, applyCategories, applyMenuItems, applyStaff, applyOrders,
		}
		for _, step := range steps {
			if err := step(tx, f, now, &res); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, apperr.Store("seed", err)
	}
	return res, nil
}

// exists sorguya uyan kayıt var mı.
func exists(tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var n int64
	if err := tx.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func applyTables(tx *gorm.DB, f *File, _ time.Time, res *Result) error {
	for _, t := range f.Tables {
		if t.Number <= 0 || t.Capacity <= 0 {
			return fmt.Errorf("%w: masa %d için numara ve kapasite pozitif olmalı", apperr.ErrInvalidInput, t.Number)
		}
		st, err := status.ParseTableStatus(t.Status)
		if err != nil {
			return err
		}
		ok, err := exists(tx, &models.Table{}, "number = ?", t.Number)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		row := models.Table{Number: t.Number, Capacity: t.Capacity, Status: st, Description: t.Description, PositionX: t.X, PositionY: t.Y}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		res.Tables++
	}
	return nil
}

func applyCategories(tx *gorm.DB, f *File, _ time.Time, res *Result) error {
	var maxOrder int
	if err := tx.Model(&models.Category{}).Select("COALESCE(MAX(sort_order), 0)").Scan(&maxOrder).Error; err != nil {
		return err
	}
	for _, c := range f.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("%w: kategori adı boş", apperr.ErrInvalidInput)
		}
		ok, err := exists(tx, &models.Category{}, "name = ?", name)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		maxOrder++
		row := models.Category{Name: name, Description: c.Description, Color: c.Color, SortOrder: maxOrder, IsActive: !c.Inactive}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		res.Categories++
	}
	return nil
}

func applyMenuItems(tx *gorm.DB, f *File, _ time.Time, res *Result) error {
	for _, m := range f.MenuItems {
		name := strings.TrimSpace(m.Name)
		if name == "" || m.Price < 0 {
			return fmt.Errorf("%w: ürün %q geçersiz", apperr.ErrInvalidInput, m.Name)
		}
		ok, err := exists(tx, &models.MenuItem{}, "name = ?", name)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		row := models.MenuItem{
			Name:            name,
			Category:        strings.TrimSpace(m.Category),
			Price:           m.Price,
			Description:     m.Description,
			PreparationTime: m.PreparationTime,
			Tags:            m.Tags,
			Ingredients:     []string{},
			IsAvailable:     !m.Unavailable,
		}
		if row.Tags == nil {
			row.Tags = []string{}
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		res.MenuItems++
	}
	return nil
}

func applyStaff(tx *gorm.DB, f *File, _ time.Time, res *Result) error {
	for _, s := range f.Staff {
		email := auth.NormalizeEmail(s.Email)
		if strings.TrimSpace(s.Name) == "" || email == "" {
			return fmt.Errorf("%w: personel için isim ve email zorunlu", apperr.ErrInvalidInput)
		}
		role := models.UserRole(s.Role)
		if role == "" {
			role = models.RoleStaff
		}
		if !role.Valid() {
			return fmt.Errorf("%w: bilinmeyen rol %q", apperr.ErrInvalidInput, s.Role)
		}
		ok, err := exists(tx, &models.User{}, "email = ?", email)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		hash, err := auth.HashPassword(s.Password)
		if err != nil {
			return fmt.Errorf("%s: %w", email, err)
		}
		row := models.User{
			Name:         strings.TrimSpace(s.Name),
			Email:        email,
			Phone:        s.Phone,
			Position:     s.Position,
			PasswordHash: hash,
			Role:         role,
			IsActive:     true,
			OnShift:      s.OnShift,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		res.Staff++
	}
	return nil
}

func (o Order) at(now time.Time) (time.Time, error) {
	if o.Ago != "" {
		d, err := time.ParseDuration(o.Ago)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: ago %q", apperr.ErrInvalidInput, o.Ago)
		}
		return now.Add(-d).UTC(), nil
	}
	if o.CreatedAt.IsZero() {
		return now.UTC(), nil
	}
	return o.CreatedAt.Time, nil
}

func applyOrders(tx *gorm.DB, f *File, now time.Time, res *Result) error {
	for i, o := range f.Orders {
		var table models.Table
		if err := tx.Where("number = ?", o.Table).First(&table).Error; err != nil {
			return fmt.Errorf("sipariş %d: masa %d: %w", i+1, o.Table, err)
		}
		st := status.OrderCompleted
		if o.Status != "" {
			parsed, err := status.ParseOrderStatus(o.Status)
			if err != nil {
				return err
			}
			st = parsed
		}
		createdAt, err := o.at(now)
		if err != nil {
			return err
		}
		if len(o.Items) == 0 {
			return fmt.Errorf("sipariş %d: %w", i+1, apperr.ErrEmptyCart)
		}

		// aynı milisaniyedeki siparişler çakışmasın
		number := fmt.Sprintf("%s-%d", orders.OrderNumber(createdAt), i+1)
		ok, err := exists(tx, &models.Order{}, "order_number = ?", number)
		if err != nil {
			return err
		}
		if ok {
			continue
		}

		row := models.Order{
			OrderNumber:  number,
			TableID:      table.ID,
			TableNumber:  table.Number,
			CustomerName: o.Customer,
			Status:       st,
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		}
		for _, it := range o.Items {
			item, err := orderItem(tx, it)
			if err != nil {
				return fmt.Errorf("sipariş %d: %w", i+1, err)
			}
			row.Items = append(row.Items, item)
			row.TotalAmount += item.LineTotal()
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		res.Orders++

		// açık sipariş masayı da meşgul göstersin
		if to, ok := status.TableStatusForOrder(st); ok && st.IsActive() && status.CanAdvanceTable(table.CurrentStatus(), to) {
			err := tx.Model(&models.Table{}).Where("id = ?", table.ID).Updates(map[string]any{
				"status":            to,
				"last_order_id":     row.ID,
				"last_order_number": row.OrderNumber,
			}).Error
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func orderItem(tx *gorm.DB, it OrderItem) (models.OrderItem, error) {
	if it.Quantity < 1 {
		return models.OrderItem{}, fmt.Errorf("%w: %s adedi en az 1 olmalı", apperr.ErrInvalidItem, it.Name)
	}
	item := models.OrderItem{Name: it.Name, Quantity: it.Quantity}

	var menu models.MenuItem
	if err := tx.Where("name = ?", it.Name).Limit(1).Find(&menu).Error; err != nil {
		return models.OrderItem{}, err
	}
	switch {
	case menu.ID != 0:
		item.MenuItemID = menu.ID
		item.UnitPrice = menu.Price
	case it.Price == nil:
		return models.OrderItem{}, fmt.Errorf("%w: %s menüde yok ve fiyatı verilmemiş", apperr.ErrInvalidItem, it.Name)
	}
	if it.Price != nil {
		item.UnitPrice = *it.Price
	}
	return item, nil
}
