package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zfogg/menuboard/internal/owner"
	"github.com/zfogg/menuboard/internal/view"
	"github.com/zfogg/menuboard/pkg/menu"
)

func newMenuCmd(a *app) *cobra.Command {
	menuCmd := &cobra.Command{
		Use:   "menu",
		Short: "Menu item commands",
		Long:  "List and view menu items; owners can edit prices, add and delete items",
	}

	menuCmd.AddCommand(newMenuListCmd(a))
	menuCmd.AddCommand(newMenuShowCmd(a))
	menuCmd.AddCommand(newMenuEditCmd(a))
	menuCmd.AddCommand(newMenuAddCmd(a))
	menuCmd.AddCommand(newMenuDeleteCmd(a))
	return menuCmd
}

func newMenuListCmd(a *app) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List menu items in server order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := view.NewListView(a.client(), view.Options{
				TruncateAt: a.cfg.View.TruncateAt,
				Surface:    "cli",
			})
			if err := list.Load(cmd.Context()); err != nil {
				return err
			}
			a.printer.Full = full
			return a.printer.Items(list.Snapshot().Items)
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Show full descriptions")
	return cmd
}

func newMenuShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one menu item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.client().Get(cmd.Context(), menu.ItemID(args[0]))
			if err != nil {
				return err
			}
			a.printer.Full = true
			return a.printer.Item(item)
		},
	}
}

func newMenuEditCmd(a *app) *cobra.Command {
	var price, secret string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the price of a menu item",
		Long: `Change the price of a menu item. The secret key comes from --secret,
then api.secret (MENU_SECRET), then a hidden prompt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := owner.ParsePrice(price); err != nil {
				return err
			}
			flow := owner.NewFlow(a.client(), nil)
			form, err := flow.LoadEdit(cmd.Context(), menu.ItemID(args[0]))
			if err != nil {
				return err
			}
			form.Price = price
			if err := flow.SubmitEdit(cmd.Context(), form, a.secret(cmd, secret)); err != nil {
				return err
			}
			a.printer.Success("%s (%s)", owner.SuccessMessage(menu.OpUpdate), form.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&price, "price", "", "New price, e.g. 12.50")
	cmd.Flags().StringVar(&secret, "secret", "", "Owner secret key")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newMenuAddCmd(a *app) *cobra.Command {
	var form owner.AddForm
	var imagePath string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a menu item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if imagePath != "" && form.ImageURL != "" {
				return errors.New("use either --image or --image-url, not both")
			}
			if imagePath != "" {
				f, err := os.Open(imagePath)
				if err != nil {
					return fmt.Errorf("failed to open image: %w", err)
				}
				defer f.Close()
				form.Image = f
				form.ImageName = filepath.Base(imagePath)
			}

			flow := owner.NewFlow(a.client(), nil)
			if err := flow.Add(cmd.Context(), form, a.secret(cmd, form.Secret)); err != nil {
				return err
			}
			a.printer.Success("%s (%s)", owner.SuccessMessage(menu.OpCreate), form.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Title, "title", "", "Item title")
	cmd.Flags().StringVar(&form.Price, "price", "", "Item price, e.g. 12.50")
	cmd.Flags().StringVar(&form.Description, "description", "", "Item description")
	cmd.Flags().StringVar(&imagePath, "image", "", "Image file to upload")
	cmd.Flags().StringVar(&form.ImageURL, "image-url", "", "Image URL instead of an upload")
	cmd.Flags().StringVar(&form.Secret, "secret", "", "Owner secret key")
	return cmd
}

func newMenuDeleteCmd(a *app) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a menu item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flow := owner.NewFlow(a.client(), nil)
			if err := flow.Delete(cmd.Context(), menu.ItemID(args[0]), a.secret(cmd, secret)); err != nil {
				return err
			}
			a.printer.Success("%s", owner.SuccessMessage(menu.OpDelete))
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Owner secret key")
	return cmd
}
