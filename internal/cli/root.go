// Package cli kafe komut satırı.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions tüm komutların ortak bayrakları.
type RootOptions struct {
	LogLevel string // boşsa LOG_LEVEL
}

// NewRootCommand kök komutu kurar.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "kafe",
		Short: "Kafe masa siparişi sunucusu",
		Long: `Kafe masa siparişi backend'i.

QR menüden gelen siparişleri, masa durumlarını ve personel ekranlarını
REST API ve WebSocket canlı görünümleri üzerinden sunar.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log seviyesi (DEBUG|INFO|WARN|ERROR)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewCreateAdminCommand())
	cmd.AddCommand(NewSeedCommand())
	cmd.AddCommand(NewStatusRulesCommand())

	return cmd
}
