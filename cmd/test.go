package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/orientavida/assess-cli/internal/store"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Manage tests",
	Long:  "Commands for creating and listing tests, the root of every authoring structure.",
}

var testCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a test",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		code, _ := cmd.Flags().GetString("code")
		desc, _ := cmd.Flags().GetString("description")
		if code == "" {
			return eris.New("--code is required")
		}

		test, err := st.CreateTest(ctx, store.TestInput{Code: code, Title: args[0], Description: desc})
		if err != nil {
			return eris.Wrap(err, "test create")
		}

		fmt.Printf("Created test %s (%s)\n", test.Code, test.ID)
		return nil
	},
}

var testListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tests",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		tests, err := st.ListTests(ctx)
		if err != nil {
			return eris.Wrap(err, "test list")
		}
		if len(tests) == 0 {
			fmt.Fprintln(os.Stderr, "No tests found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tID\tTITLE")
		for _, t := range tests {
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Code, t.ID, t.Title)
		}
		return w.Flush()
	},
}

func init() {
	testCreateCmd.Flags().String("code", "", "unique short code for the test")
	testCreateCmd.Flags().String("description", "", "test description")

	testCmd.AddCommand(testCreateCmd)
	testCmd.AddCommand(testListCmd)
	rootCmd.AddCommand(testCmd)
}
