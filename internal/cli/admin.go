package cli

import (
	"fmt"

	"kafe-backend/internal/auth"

	"github.com/spf13/cobra"
)

type createAdminOptions struct {
	name     string
	email    string
	password string
}

func NewCreateAdminCommand() *cobra.Command {
	opts := &createAdminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "İlk yönetici hesabını oluştur",
		Long: `İlk yönetici hesabını oluşturur. Sistemde zaten bir yönetici varsa
komut hata verir; diğer hesaplar yönetici panelinden açılır.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openStore()
			if err != nil {
				return err
			}
			// token üretilmeyecek, secret gerekmez
			svc := auth.NewService(db, cfg.JWTSecret, cfg.JWTTTL)
			user, err := svc.RegisterFirstAdmin(cmd.Context(), opts.name, opts.email, opts.password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Yönetici oluşturuldu: %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "yönetici adı")
	cmd.Flags().StringVar(&opts.email, "email", "", "giriş emaili")
	cmd.Flags().StringVar(&opts.password, "password", "", "şifre (en az 6 karakter)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
