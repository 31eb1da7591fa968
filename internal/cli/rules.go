package cli

import (
	"kafe-backend/internal/status"

	"github.com/spf13/cobra"
)

func NewStatusRulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status-rules",
		Short: "Sipariş ve masa durum geçiş tablolarını yazdır",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return status.RenderRules(cmd.OutOrStdout())
		},
	}
}
