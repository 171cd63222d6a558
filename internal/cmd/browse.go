package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zfogg/menuboard/internal/tui"
)

func newBrowseCmd(a *app) *cobra.Command {
	var isOwner bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the menu in the terminal",
		Long: `Browse the menu in a full-screen terminal view. With --owner the
browser also offers price edits and deletes, each guarded by the secret key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), a.client(), tui.Options{
				Owner:               isOwner,
				TruncateAt:          a.cfg.View.TruncateAt,
				VisibilityThreshold: a.cfg.View.VisibilityThreshold,
			})
		},
	}

	cmd.Flags().BoolVar(&isOwner, "owner", false, "Show owner controls")
	return cmd
}
