// Package server servisleri REST API'ye ve canlı görünüm sunucusuna bağlar,
// ikisini birlikte çalıştırır.
package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kafe-backend/internal/audit"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/catalog"
	"kafe-backend/internal/config"
	"kafe-backend/internal/floorplan"
	"kafe-backend/internal/livesync"
	"kafe-backend/internal/logger"
	"kafe-backend/internal/orders"
	"kafe-backend/internal/realtime"
	"kafe-backend/internal/reports"
	"kafe-backend/internal/settings"
	"kafe-backend/internal/staff"
	"kafe-backend/internal/tables"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type App struct {
	cfg *config.Config
	db  *gorm.DB
	log *logger.Logger
	bus *livesync.Bus

	Auth     *auth.Service
	Tables   *tables.Registry
	Orders   *orders.Ledger
	Catalog  *catalog.Service
	Staff    *staff.Service
	Reports  *reports.Service
	Settings *settings.Service
	Audit    *audit.Service
	Live     *realtime.Server

	HTTP *fiber.App
}

func New(cfg *config.Config, db *gorm.DB, log *logger.Logger) *App {
	bus := livesync.NewBus()
	layout := floorplan.Size{Width: cfg.LayoutWidth, Height: cfg.LayoutHeight}

	a := &App{cfg: cfg, db: db, log: log, bus: bus}
	a.Auth = auth.NewService(db, cfg.JWTSecret, cfg.JWTTTL)
	a.Tables = tables.NewRegistry(db, bus, layout)
	a.Orders = orders.NewLedger(db, bus, orders.WithLocation(cfg.Location))
	a.Catalog = catalog.NewService(db, bus)
	a.Staff = staff.NewService(db, bus, a.Auth)
	a.Reports = reports.NewService(db, cfg.Location, nil)
	a.Settings = settings.NewService(db, bus)
	a.Audit = audit.NewService(db, bus)
	a.Live = realtime.New(realtime.Deps{
		Auth:      a.Auth,
		Tables:    a.Tables,
		Orders:    a.Orders,
		Staff:     a.Staff,
		Menu:      a.Catalog,
		Bus:       bus,
		Baselines: livesync.NewGormBaselineStore(db),
		Layout:    layout,
		Location:  cfg.Location,
		Log:       log.With("live"),
	})

	a.HTTP = a.newFiber()
	a.routes()
	return a
}

func (a *App) newFiber() *fiber.App {
	httpLog := a.log.With("http")
	app := fiber.New(fiber.Config{
		AppName:   "kafe-backend",
		BodyLimit: 8 << 20, // menü excel dosyaları
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			rid, _ := c.Locals(requestid.ConfigDefault.ContextKey).(string)
			httpLog.Error(rid, c.Method()+" "+c.Path(), "Beklenmeyen hata", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     `{"timestamp":"${time}","level":"INFO","service":"http","request_id":"${locals:requestid}","status":${status},"method":"${method}","path":"${path}","latency":"${latency}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
	}))

	// CORS origins virgülle ayrılmış gelir
	origins := strings.Split(a.cfg.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	return app
}

// Run ctx bitene ya da biri hata verene kadar REST API'yi, canlı görünümleri
// ve ayarlıysa RabbitMQ köprüsünü çalıştırır.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("", "listen", "Server çalışıyor port: "+a.cfg.HTTPPort)
		return a.HTTP.Listen(":" + a.cfg.HTTPPort)
	})
	g.Go(func() error {
		<-ctx.Done()
		return a.HTTP.ShutdownWithTimeout(5 * time.Second)
	})
	g.Go(func() error {
		return a.Live.ListenAndServe(ctx, ":"+a.cfg.LivePort)
	})
	if a.cfg.RabbitMQURL != "" {
		bridge := livesync.NewBridge(a.cfg.RabbitMQURL, a.bus, a.log.With("bridge"))
		g.Go(func() error { return bridge.Run(ctx) })
	} else {
		a.log.Info("", "bridge", "RABBITMQ_URL boş, köprü kapalı")
	}

	err := g.Wait()
	if n := a.bus.Dropped(); n > 0 {
		a.log.Warn("", "shutdown", fmt.Sprintf("dolu abone tamponları yüzünden %d sinyal kaçırıldı", n))
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
