package server

import (
	"kafe-backend/internal/audit"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/catalog"
	"kafe-backend/internal/models"
	"kafe-backend/internal/orders"
	"kafe-backend/internal/realtime"
	"kafe-backend/internal/reports"
	"kafe-backend/internal/settings"
	"kafe-backend/internal/staff"
	"kafe-backend/internal/tables"
)

func (a *App) routes() {
	api := a.HTTP.Group("/api")

	// Public: müşteri QR menüsü ve giriş.
	// Korunan grup /api altına middleware taktığı için bunlar önce kaydedilmeli.
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(a.Auth))
	api.Post("/auth/login", auth.LoginHandler(a.Auth))

	api.Get("/menu", catalog.PublicMenuHandler(a.Catalog))
	api.Get("/tables/:id", tables.GetTableHandler(a.Tables))
	api.Post("/orders", orders.PlaceOrderHandler(a.Orders, a.Catalog))
	api.Get("/public/tables/:id/tracker", realtime.OrderTrackerHandler(a.Live))
	api.Get("/settings/cafe", settings.GetCafeHandler(a.Settings))
	api.Get("/settings/theme", settings.GetThemeHandler(a.Settings))

	// Oturum gerektirenler
	protected := api.Group("")
	protected.Use(auth.Middleware(a.Auth))

	protected.Get("/auth/me", auth.MeHandler(a.db))
	protected.Post("/auth/logout", auth.LogoutHandler(a.Auth))

	// Personel ekranları
	protected.Get("/dashboard", realtime.DashboardHandler(a.Live))
	protected.Get("/tables-view", realtime.TablesViewHandler(a.Live))
	protected.Get("/layout", realtime.LayoutHandler(a.Live))

	protected.Get("/tables", tables.ListTablesHandler(a.Tables))
	protected.Get("/tables/:id/orders", orders.TableOrdersHandler(a.Orders))
	protected.Put("/tables/:id/status", orders.AdvanceTableStatusHandler(a.Orders))
	protected.Post("/tables/:id/clear", orders.ClearTableHandler(a.Orders))

	protected.Get("/orders/today", orders.TodayOrdersHandler(a.Orders))
	protected.Get("/orders/:id", orders.GetOrderHandler(a.Orders))
	protected.Put("/orders/:id/status", orders.AdvanceOrderStatusHandler(a.Orders))

	// Admin
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	// Masa yönetimi
	adminRoutes.Post("/tables", tables.CreateTableHandler(a.Tables))
	adminRoutes.Put("/tables/:id", tables.UpdateTableHandler(a.Tables))
	adminRoutes.Delete("/tables/:id", tables.DeleteTableHandler(a.Tables))
	adminRoutes.Put("/tables/:id/position", tables.MoveTableHandler(a.Tables))
	adminRoutes.Post("/tables/:id/maintenance", tables.ToggleMaintenanceHandler(a.Tables))

	// Menü
	adminRoutes.Get("/menu-items", catalog.ListMenuItemsHandler(a.Catalog))
	adminRoutes.Post("/menu-items/import", catalog.ImportMenuHandler(a.Catalog))
	adminRoutes.Post("/menu-items", catalog.CreateMenuItemHandler(a.Catalog))
	adminRoutes.Put("/menu-items/:id", catalog.UpdateMenuItemHandler(a.Catalog))
	adminRoutes.Delete("/menu-items/:id", catalog.DeleteMenuItemHandler(a.Catalog))
	adminRoutes.Post("/menu-items/:id/toggle", catalog.ToggleMenuItemHandler(a.Catalog))

	adminRoutes.Get("/categories", catalog.ListCategoriesHandler(a.Catalog))
	adminRoutes.Post("/categories", catalog.CreateCategoryHandler(a.Catalog))
	adminRoutes.Put("/categories/:id", catalog.UpdateCategoryHandler(a.Catalog))
	adminRoutes.Delete("/categories/:id", catalog.DeleteCategoryHandler(a.Catalog))
	adminRoutes.Post("/categories/:id/toggle", catalog.ToggleCategoryHandler(a.Catalog))
	adminRoutes.Post("/categories/:id/move/:direction", catalog.MoveCategoryHandler(a.Catalog))

	// Personel
	adminRoutes.Get("/staff", staff.ListStaffHandler(a.Staff))
	adminRoutes.Post("/staff", staff.CreateStaffHandler(a.Staff))
	adminRoutes.Put("/staff/:id", staff.UpdateStaffHandler(a.Staff))
	adminRoutes.Delete("/staff/:id", staff.DeleteStaffHandler(a.Staff))
	adminRoutes.Post("/staff/:id/toggle-active", staff.ToggleActiveHandler(a.Staff))
	adminRoutes.Post("/staff/:id/toggle-shift", staff.ToggleShiftHandler(a.Staff))
	adminRoutes.Post("/staff/:id/reset-password", staff.ResetPasswordHandler(a.Staff))

	// Raporlar ve ayarlar
	adminRoutes.Get("/reports", reports.ReportHandler(a.Reports))
	adminRoutes.Put("/settings/cafe", settings.SaveCafeHandler(a.Settings))
	adminRoutes.Put("/settings/theme", settings.SaveThemeHandler(a.Settings))

	// Audit logs
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler(a.Audit))
	adminRoutes.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler(a.Audit))
}
