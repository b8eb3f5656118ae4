package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"yamdb/internal/microservices/http-api/dto"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review commands",
	Long:  `Read the reviews of a title, post your own (one per title) or delete one.`,
}

var listReviewsCmd = &cobra.Command{
	Use:   "list [title-id]",
	Short: "List the reviews of a title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		titleID, err := parseID(args[0], "title")
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		reviews, err := GetAuthenticatedClient().ListReviews(ctx, titleID, page)
		if err != nil {
			return fmt.Errorf("failed to get reviews: %w", err)
		}
		if len(reviews.Data) == 0 {
			fmt.Printf("No reviews yet for title #%d.\n", titleID)
			return nil
		}
		for _, r := range reviews.Data {
			fmt.Printf("#%d  %d/10  by %s on %s\n", r.ID, r.Score, r.Author, r.PubDate.Format("2006-01-02"))
			fmt.Printf("    %s\n", r.Text)
			fmt.Println(strings.Repeat("-", 50))
		}
		printPageFooter(reviews.Page, reviews.TotalPages, reviews.Total)
		return nil
	},
}

var createReviewCmd = &cobra.Command{
	Use:   "create [title-id] [text...]",
	Short: "Review a title",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		titleID, err := parseID(args[0], "title")
		if err != nil {
			return err
		}
		score, _ := cmd.Flags().GetInt("score")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		r, err := GetAuthenticatedClient().CreateReview(ctx, titleID, dto.CreateReviewDTO{
			Text:  strings.Join(args[1:], " "),
			Score: score,
		})
		if err != nil {
			return fmt.Errorf("failed to post review: %w", err)
		}
		success("Review #%d posted with score %d", r.ID, r.Score)
		return nil
	},
}

var deleteReviewCmd = &cobra.Command{
	Use:   "delete [title-id] [review-id]",
	Short: "Delete a review and its comments",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		titleID, err := parseID(args[0], "title")
		if err != nil {
			return err
		}
		reviewID, err := parseID(args[1], "review")
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := GetAuthenticatedClient().DeleteReview(ctx, titleID, reviewID); err != nil {
			return fmt.Errorf("failed to delete review: %w", err)
		}
		success("Review #%d deleted", reviewID)
		return nil
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Comment commands",
	Long:  `Read and post comments on a review.`,
}

var listCommentsCmd = &cobra.Command{
	Use:   "list [title-id] [review-id]",
	Short: "List the comments on a review",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		titleID, err := parseID(args[0], "title")
		if err != nil {
			return err
		}
		reviewID, err := parseID(args[1], "review")
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")

		ctx, cancel := commandContext(cmd)
		defer cancel()

		comments, err := GetAuthenticatedClient().ListComments(ctx, titleID, reviewID, page)
		if err != nil {
			return fmt.Errorf("failed to get comments: %w", err)
		}
		if len(comments.Data) == 0 {
			fmt.Println("No comments yet.")
			return nil
		}
		for _, c := range comments.Data {
			fmt.Printf("#%d %s (%s): %s\n", c.ID, c.Author, c.PubDate.Format("2006-01-02 15:04"), c.Text)
		}
		printPageFooter(comments.Page, comments.TotalPages, comments.Total)
		return nil
	},
}

var createCommentCmd = &cobra.Command{
	Use:   "create [title-id] [review-id] [text...]",
	Short: "Comment on a review",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		titleID, err := parseID(args[0], "title")
		if err != nil {
			return err
		}
		reviewID, err := parseID(args[1], "review")
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		c, err := GetAuthenticatedClient().CreateComment(ctx, titleID, reviewID, strings.Join(args[2:], " "))
		if err != nil {
			return fmt.Errorf("failed to post comment: %w", err)
		}
		success("Comment #%d posted", c.ID)
		return nil
	},
}

var deleteCommentCmd = &cobra.Command{
	Use:   "delete [title-id] [review-id] [comment-id]",
	Short: "Delete a comment",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, 3)
		for i, what := range []string{"title", "review", "comment"} {
			id, err := parseID(args[i], what)
			if err != nil {
				return err
			}
			ids[i] = id
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := GetAuthenticatedClient().DeleteComment(ctx, ids[0], ids[1], ids[2]); err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}
		success("Comment #%d deleted", ids[2])
		return nil
	},
}

func init() {
	reviewCmd.AddCommand(listReviewsCmd, createReviewCmd, deleteReviewCmd)
	listReviewsCmd.Flags().Int("page", 1, "Page number")
	createReviewCmd.Flags().IntP("score", "s", 0, "Score from 1 to 10")
	_ = createReviewCmd.MarkFlagRequired("score")

	commentCmd.AddCommand(listCommentsCmd, createCommentCmd, deleteCommentCmd)
	listCommentsCmd.Flags().Int("page", 1, "Page number")
}
