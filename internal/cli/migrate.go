package cli

import (
	"fmt"

	"kafe-backend/internal/config"
	"kafe-backend/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// openStore sadece veritabanı ayarlarıyla bağlanır.
func openStore() (*gorm.DB, *config.Config, error) {
	cfg, err := config.LoadStore()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}

func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Veritabanı tablolarını oluştur veya güncelle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := openStore(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migration tamamlandı.")
			return nil
		},
	}
}
