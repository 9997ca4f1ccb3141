package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/orientavida/assess-cli/internal/authoring"
	"github.com/orientavida/assess-cli/internal/codes"
)

var factorCmd = &cobra.Command{
	Use:   "factor",
	Short: "Manage factors",
}

var factorAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a factor to a test",
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
		if code == "" {
			code = codes.Suggest(args[0])
		}

		if err := sess.CreateFactor(ctx, authoring.FactorDraft{
			Code: code, Name: args[0], Description: desc,
		}); err != nil {
			return eris.Wrap(err, "factor add")
		}

		fmt.Printf("Added factor %s\n", code)
		return nil
	},
}

var factorRmCmd = &cobra.Command{
	Use:   "rm <factor-id>",
	Short: "Remove a factor, detaching its subfactors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := sess.DeleteFactor(ctx, args[0]); err != nil {
			return eris.Wrap(err, "factor rm")
		}

		fmt.Println("Factor removed; its subfactors remain, unattached.")
		return nil
	},
}

func init() {
	factorAddCmd.Flags().String("test", "", "test ID")
	factorAddCmd.Flags().String("code", "", "short code (suggested from the name if empty)")
	factorAddCmd.Flags().String("description", "", "factor description")
	factorRmCmd.Flags().String("test", "", "test ID")

	factorCmd.AddCommand(factorAddCmd)
	factorCmd.AddCommand(factorRmCmd)
	rootCmd.AddCommand(factorCmd)
}
