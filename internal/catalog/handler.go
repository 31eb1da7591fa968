package catalog

import (
	"strings"

	"kafe-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

type MenuItemRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Price           float64  `json:"price"`
	Category        string   `json:"category"`
	Image           string   `json:"image"`
	Ingredients     []string `json:"ingredients"`
	Tags            []string `json:"tags"`
	PreparationTime int      `json:"preparation_time"`
	IsAvailable     *bool    `json:"is_available"`
}

func (r MenuItemRequest) input() MenuItemInput {
	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}
	return MenuItemInput{
		Name: r.Name, Description: r.Description, Price: r.Price, Category: r.Category,
		Image: r.Image, Ingredients: r.Ingredients, Tags: r.Tags,
		PreparationTime: r.PreparationTime, IsAvailable: available,
	}
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Color       string `json:"color"`
	SortOrder   int    `json:"sort_order"`
	IsActive    *bool  `json:"is_active"`
}

func (r CategoryRequest) input() CategoryInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	color := r.Color
	if color == "" {
		color = "#6366f1"
	}
	return CategoryInput{Name: r.Name, Description: r.Description, Image: r.Image, Color: color, SortOrder: r.SortOrder, IsActive: active}
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Geçersiz ID")
	}
	return uint(id), nil
}

// GET /api/menu  (müşteri menüsü)
func PublicMenuHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		menu, err := s.PublicMenu(c.UserContext())
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(menu)
	}
}

// GET /api/admin/menu-items?category=Kahveler
func ListMenuItemsHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := s.ListMenuItems(c.UserContext(), c.Query("category"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}
		return c.JSON(list)
	}
}

// POST /api/admin/menu-items
func CreateMenuItemHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body MenuItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		m, err := s.CreateMenuItem(c.UserContext(), body.input())
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// PUT /api/admin/menu-items/:id
func UpdateMenuItemHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body MenuItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		m, err := s.UpdateMenuItem(c.UserContext(), id, body.input())
		if err != nil {
			return apperr.ToFiber(err, "Ürün bulunamadı")
		}
		return c.JSON(m)
	}
}

// DELETE /api/admin/menu-items/:id
func DeleteMenuItemHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := s.DeleteMenuItem(c.UserContext(), id); err != nil {
			return apperr.ToFiber(err, "Ürün bulunamadı")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/admin/menu-items/:id/toggle
func ToggleMenuItemHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		m, err := s.ToggleAvailability(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err, "Ürün bulunamadı")
		}
		return c.JSON(m)
	}
}

// POST /api/admin/menu-items/import  (multipart, "file" alanı)
func ImportMenuHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dosya yüklenemedi: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Sadece .xlsx dosyaları yüklenebilir")
		}
		file, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dosya açılamadı: "+err.Error())
		}
		defer file.Close()

		res, err := s.ImportMenuXLSX(c.UserContext(), file)
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.JSON(res)
	}
}

// GET /api/admin/categories
func ListCategoriesHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := s.ListCategories(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kategoriler listelenemedi")
		}
		return c.JSON(list)
	}
}

// POST /api/admin/categories
func CreateCategoryHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		cat, err := s.CreateCategory(c.UserContext(), body.input())
		if err != nil {
			return apperr.ToFiber(err, "")
		}
		return c.Status(fiber.StatusCreated).JSON(cat)
	}
}

// PUT /api/admin/categories/:id
func UpdateCategoryHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		cat, err := s.UpdateCategory(c.UserContext(), id, body.input())
		if err != nil {
			return apperr.ToFiber(err, "Kategori bulunamadı")
		}
		return c.JSON(cat)
	}
}

// DELETE /api/admin/categories/:id
func DeleteCategoryHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		if err := s.DeleteCategory(c.UserContext(), id); err != nil {
			return apperr.ToFiber(err, "Kategori bulunamadı")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/admin/categories/:id/toggle
func ToggleCategoryHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		cat, err := s.ToggleCategory(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err, "Kategori bulunamadı")
		}
		return c.JSON(cat)
	}
}

// POST /api/admin/categories/:id/move/:direction
func MoveCategoryHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return err
		}
		list, err := s.MoveCategory(c.UserContext(), id, Direction(c.Params("direction")))
		if err != nil {
			return apperr.ToFiber(err, "Kategori bulunamadı")
		}
		return c.JSON(list)
	}
}
