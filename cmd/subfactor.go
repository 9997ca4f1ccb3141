package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/orientavida/assess-cli/internal/authoring"
	"github.com/orientavida/assess-cli/internal/codes"
)

var subfactorCmd = &cobra.Command{
	Use:   "subfactor",
	Short: "Manage subfactors",
}

var subfactorAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a subfactor, optionally attached to a factor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		code, _ := cmd.Flags().GetString("code")
		desc, _ := cmd.Flags().GetString("description")
		factorID, _ := cmd.Flags().GetString("factor")
		if code == "" {
			code = codes.Suggest(args[0])
		}

		draft := authoring.SubfactorDraft{Code: code, Name: args[0], Description: desc}
		if factorID != "" {
			draft.FactorID = &factorID
		}

		if err := sess.CreateSubfactor(ctx, draft); err != nil {
			return eris.Wrap(err, "subfactor add")
		}

		fmt.Printf("Added subfactor %s\n", code)
		return nil
	},
}

var subfactorRmCmd = &cobra.Command{
	Use:   "rm <subfactor-id>",
	Short: "Remove a subfactor, detaching its questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := sess.DeleteSubfactor(ctx, args[0]); err != nil {
			return eris.Wrap(err, "subfactor rm")
		}

		fmt.Println("Subfactor removed; its questions remain, untagged.")
		return nil
	},
}

func init() {
	subfactorAddCmd.Flags().String("test", "", "test ID")
	subfactorAddCmd.Flags().String("code", "", "short code (suggested from the name if empty)")
	subfactorAddCmd.Flags().String("description", "", "subfactor description")
	subfactorAddCmd.Flags().String("factor", "", "ID of the factor to attach to")
	subfactorRmCmd.Flags().String("test", "", "test ID")

	subfactorCmd.AddCommand(subfactorAddCmd)
	subfactorCmd.AddCommand(subfactorRmCmd)
	rootCmd.AddCommand(subfactorCmd)
}
