package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/orientavida/assess-cli/internal/model"
)

var questionCmd = &cobra.Command{
	Use:   "question",
	Short: "Manage questions",
	Long:  "Commands for authoring questions. Adding a question creates its standard five-answer frequency scale with it, in one unit.",
}

var questionAddCmd = &cobra.Command{
	Use:   "add <text>",
	Short: "Add a question with its standard answer scale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		subfactorID, _ := cmd.Flags().GetString("subfactor")
		var sfID *string
		if subfactorID != "" {
			sfID = &subfactorID
		}

		q, err := sess.CreateQuestion(ctx, args[0], sfID)
		if err != nil {
			return eris.Wrap(err, "question add")
		}

		fmt.Printf("Added question at position %d with %d answers (%s)\n", q.Position, len(q.Answers), q.ID)
		return nil
	},
}

var questionRmCmd = &cobra.Command{
	Use:   "rm <question-id>",
	Short: "Remove a question and all of its answers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Fprintln(os.Stderr, "Removing a question deletes all of its answers. Re-run with --yes to confirm.")
			return eris.New("confirmation required")
		}

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := sess.DeleteQuestion(ctx, args[0]); err != nil {
			return eris.Wrap(err, "question rm")
		}

		fmt.Println("Question and its answers removed.")
		return nil
	},
}

var questionEditCmd = &cobra.Command{
	Use:   "edit <question-id>",
	Short: "Edit a question's text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		text, _ := cmd.Flags().GetString("text")
		if text == "" {
			return eris.New("--text is required")
		}

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := sess.StartEdit(model.EditingQuestion(args[0])); err != nil {
			return err
		}
		defer sess.EndEdit()

		if err := sess.UpdateQuestionText(ctx, args[0], text); err != nil {
			return eris.Wrap(err, "question edit")
		}

		fmt.Println("Question updated.")
		return nil
	},
}

var questionMoveCmd = &cobra.Command{
	Use:   "move <question-id>",
	Short: "Retag a question to a subfactor, or clear the tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		subfactorID, _ := cmd.Flags().GetString("subfactor")
		var sfID *string
		if subfactorID != "" {
			sfID = &subfactorID
		}

		if err := sess.SetQuestionSubfactor(ctx, args[0], sfID); err != nil {
			return eris.Wrap(err, "question move")
		}

		if sfID == nil {
			fmt.Println("Question untagged.")
		} else {
			fmt.Println("Question retagged.")
		}
		return nil
	},
}

func init() {
	questionAddCmd.Flags().String("test", "", "test ID")
	questionAddCmd.Flags().String("subfactor", "", "ID of the subfactor to tag the question with")
	questionRmCmd.Flags().String("test", "", "test ID")
	questionRmCmd.Flags().Bool("yes", false, "confirm the cascade delete")
	questionEditCmd.Flags().String("test", "", "test ID")
	questionEditCmd.Flags().String("text", "", "new question text")
	questionMoveCmd.Flags().String("test", "", "test ID")
	questionMoveCmd.Flags().String("subfactor", "", "target subfactor ID (empty clears the tag)")

	questionCmd.AddCommand(questionAddCmd)
	questionCmd.AddCommand(questionRmCmd)
	questionCmd.AddCommand(questionEditCmd)
	questionCmd.AddCommand(questionMoveCmd)
	rootCmd.AddCommand(questionCmd)
}
