package cli

import (
	"fmt"
	"time"

	"kafe-backend/internal/seed"

	"github.com/spf13/cobra"
)

func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "YAML dosyasından masa, menü, personel ve sipariş yükle",
		Long: `Bir YAML dosyasındaki masaları, kategorileri, ürünleri, personeli ve
geçmiş siparişleri tek işlemde yükler. Var olan kayıtlar atlanır.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}
			db, _, err := openStore()
			if err != nil {
				return err
			}
			res, err := seed.Apply(cmd.Context(), db, f, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Yüklendi: %s\n", res)
			return nil
		},
	}
}
