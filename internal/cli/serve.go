package cli

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"kafe-backend/internal/config"
	"kafe-backend/internal/database"
	"kafe-backend/internal/logger"
	"kafe-backend/internal/server"

	"github.com/spf13/cobra"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "REST API ve canlı görünüm sunucusunu başlat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if rootOpts.LogLevel != "" {
				cfg.LogLevel = strings.ToUpper(rootOpts.LogLevel)
			}
			log := logger.New("kafe-backend", logger.ParseLevel(cfg.LogLevel))
			db := database.Init(cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := server.New(cfg, db, log).Run(ctx); err != nil {
				log.Error("", "serve", "Sunucu durdu", err)
				return err
			}
			log.Info("", "serve", "Sunucu kapatıldı")
			return nil
		},
	}
}
