package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"yamdb/cmd/cli/command/client"
	"yamdb/internal/microservices/http-api/dto"
)

var titleCmd = &cobra.Command{
	Use:   "title",
	Short: "Title commands",
	Long:  `Browse titles with their rating, and as an administrator create or delete them.`,
}

var listTitlesCmd = &cobra.Command{
	Use:   "list",
	Short: "List titles",
	RunE: func(cmd *cobra.Command, args []string) error {
		var f client.TitleFilter
		f.Category, _ = cmd.Flags().GetString("category")
		f.Genre, _ = cmd.Flags().GetString("genre")
		f.Name, _ = cmd.Flags().GetString("name")
		f.Year, _ = cmd.Flags().GetInt("year")
		f.Page, _ = cmd.Flags().GetInt("page")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		titles, err := GetAuthenticatedClient().ListTitles(ctx, f)
		if err != nil {
			return fmt.Errorf("failed to list titles: %w", err)
		}
		if len(titles.Data) == 0 {
			fmt.Println("No titles found.")
			return nil
		}
		for _, t := range titles.Data {
			fmt.Printf("#%-5d %-40s %4d  rating %s\n", t.ID, t.Name, t.Year, formatRating(t.Rating))
		}
		printPageFooter(titles.Page, titles.TotalPages, titles.Total)
		return nil
	},
}

var getTitleCmd = &cobra.Command{
	Use:   "get [title-id]",
	Short: "Show one title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "title")
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		t, err := GetAuthenticatedClient().GetTitle(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get title: %w", err)
		}
		printTitle(t)
		return nil
	},
}

var createTitleCmd = &cobra.Command{
	Use:   "create [name...]",
	Short: "Create a title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := dto.CreateTitleDTO{Name: strings.Join(args, " ")}
		req.Year, _ = cmd.Flags().GetInt("year")
		req.Description, _ = cmd.Flags().GetString("description")
		req.Category, _ = cmd.Flags().GetString("category")
		req.Genre, _ = cmd.Flags().GetStringSlice("genre")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		t, err := GetAuthenticatedClient().CreateTitle(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to create title: %w", err)
		}
		success("Title created: #%d %s (%d)", t.ID, t.Name, t.Year)
		return nil
	},
}

var deleteTitleCmd = &cobra.Command{
	Use:   "delete [title-id]",
	Short: "Delete a title with its reviews and comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0], "title")
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := GetAuthenticatedClient().DeleteTitle(ctx, id); err != nil {
			return fmt.Errorf("failed to delete title: %w", err)
		}
		success("Title #%d deleted", id)
		return nil
	},
}

func init() {
	titleCmd.AddCommand(listTitlesCmd, getTitleCmd, createTitleCmd, deleteTitleCmd)

	listTitlesCmd.Flags().String("category", "", "Category slug")
	listTitlesCmd.Flags().String("genre", "", "Genre slug")
	listTitlesCmd.Flags().StringP("name", "n", "", "Name substring")
	listTitlesCmd.Flags().IntP("year", "y", 0, "Release year")
	listTitlesCmd.Flags().Int("page", 1, "Page number")

	createTitleCmd.Flags().IntP("year", "y", 0, "Release year")
	createTitleCmd.Flags().StringP("description", "d", "", "Description")
	createTitleCmd.Flags().String("category", "", "Category slug")
	createTitleCmd.Flags().StringSlice("genre", nil, "Genre slugs (repeat or comma separate)")
	_ = createTitleCmd.MarkFlagRequired("year")
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID %q", what, raw)
	}
	return id, nil
}

func formatRating(r *int) string {
	if r == nil {
		return "-"
	}
	return strconv.Itoa(*r)
}

func printTitle(t *dto.TitleReadResponse) {
	fmt.Printf("ID:          %d\n", t.ID)
	fmt.Printf("Name:        %s\n", t.Name)
	fmt.Printf("Year:        %d\n", t.Year)
	fmt.Printf("Rating:      %s\n", formatRating(t.Rating))
	if t.Category != nil {
		fmt.Printf("Category:    %s\n", t.Category.Name)
	}
	if len(t.Genre) > 0 {
		names := make([]string, 0, len(t.Genre))
		for _, g := range t.Genre {
			names = append(names, g.Name)
		}
		fmt.Printf("Genres:      %s\n", strings.Join(names, ", "))
	}
	if t.Description != "" {
		fmt.Printf("Description: %s\n", t.Description)
	}
}
