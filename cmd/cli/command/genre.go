package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	categoryCmd = groupCommand("category", "categories", "Category")
	genreCmd    = groupCommand("genre", "genres", "Genre")
)

// groupCommand builds list/create/delete for the name+slug collections.
func groupCommand(use, kind, label string) *cobra.Command {
	root := &cobra.Command{
		Use:   use,
		Short: label + " management commands",
		Long:  fmt.Sprintf("List %s, and as an administrator create or delete them.", kind),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List " + kind,
		RunE: func(cmd *cobra.Command, args []string) error {
			search, _ := cmd.Flags().GetString("search")
			page, _ := cmd.Flags().GetInt("page")

			ctx, cancel := commandContext(cmd)
			defer cancel()

			items, err := GetAuthenticatedClient().ListGroups(ctx, kind, search, page)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", kind, err)
			}
			if len(items.Data) == 0 {
				fmt.Printf("No %s found.\n", kind)
				return nil
			}
			for _, it := range items.Data {
				fmt.Printf("%-30s %s\n", it.Slug, it.Name)
			}
			printPageFooter(items.Page, items.TotalPages, items.Total)
			return nil
		},
	}
	list.Flags().StringP("search", "s", "", "Name prefix filter")
	list.Flags().Int("page", 1, "Page number")

	create := &cobra.Command{
		Use:   "create [slug] [name...]",
		Short: "Create a " + strings.ToLower(label),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			created, err := GetAuthenticatedClient().CreateGroup(ctx, kind, strings.Join(args[1:], " "), args[0])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", strings.ToLower(label), err)
			}
			success("%s created: %s (%s)", label, created.Name, created.Slug)
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete [slug]",
		Short: "Delete a " + strings.ToLower(label),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if err := GetAuthenticatedClient().DeleteGroup(ctx, kind, args[0]); err != nil {
				return fmt.Errorf("failed to delete %s: %w", strings.ToLower(label), err)
			}
			success("%s %s deleted", label, args[0])
			return nil
		},
	}

	root.AddCommand(list, create, del)
	return root
}
