package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/orientavida/assess-cli/internal/model"
)

var answerCmd = &cobra.Command{
	Use:   "answer",
	Short: "Manage answers",
}

var answerAddCmd = &cobra.Command{
	Use:   "add <question-id> <text>",
	Short: "Add an answer to a question",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		value, _ := cmd.Flags().GetInt("value")

		if err := sess.CreateAnswer(ctx, args[0], args[1], value); err != nil {
			return eris.Wrap(err, "answer add")
		}

		fmt.Println("Answer added.")
		return nil
	},
}

var answerRmCmd = &cobra.Command{
	Use:   "rm <answer-id>",
	Short: "Remove an answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := sess.DeleteAnswer(ctx, args[0]); err != nil {
			return eris.Wrap(err, "answer rm")
		}

		fmt.Println("Answer removed.")
		return nil
	},
}

var answerEditCmd = &cobra.Command{
	Use:   "edit <answer-id>",
	Short: "Edit an answer's text and/or value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var text *string
		var value *int
		if cmd.Flags().Changed("text") {
			v, _ := cmd.Flags().GetString("text")
			text = &v
		}
		if cmd.Flags().Changed("value") {
			v, _ := cmd.Flags().GetInt("value")
			value = &v
		}
		if text == nil && value == nil {
			return eris.New("nothing to change: pass --text and/or --value")
		}

		if err := sess.StartEdit(model.EditingAnswer(args[0])); err != nil {
			return err
		}
		defer sess.EndEdit()

		if err := sess.UpdateAnswer(ctx, args[0], text, value); err != nil {
			return eris.Wrap(err, "answer edit")
		}

		fmt.Println("Answer updated.")
		return nil
	},
}

func init() {
	answerAddCmd.Flags().String("test", "", "test ID")
	answerAddCmd.Flags().Int("value", 0, "ordinal value of the answer")
	answerRmCmd.Flags().String("test", "", "test ID")
	answerEditCmd.Flags().String("test", "", "test ID")
	answerEditCmd.Flags().String("text", "", "new answer text")
	answerEditCmd.Flags().Int("value", 0, "new answer value")

	answerCmd.AddCommand(answerAddCmd)
	answerCmd.AddCommand(answerRmCmd)
	answerCmd.AddCommand(answerEditCmd)
	rootCmd.AddCommand(answerCmd)
}
