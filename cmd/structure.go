package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/orientavida/assess-cli/internal/model"
	"github.com/orientavida/assess-cli/internal/structure"
)

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Inspect test structures",
}

var structureShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a test's full structure tree",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		view := sess.View()
		test, _ := view.Test()
		fmt.Printf("%s — %s\n\n", test.Code, test.Title)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, f := range view.SortedFactors() {
			fmt.Fprintf(w, "%d. %s\t%s\t\n", f.Position, f.Code, f.Name)
			for _, sf := range view.SortedSubfactors(&f.ID) {
				fmt.Fprintf(w, "  %d.%d %s\t%s\t\n", f.Position, sf.Position, sf.Code, sf.Name)
				printQuestions(w, view, &sf.ID, "    ")
			}
		}

		loose := unattachedSubfactors(view)
		if len(loose) > 0 {
			fmt.Fprintln(w, "— unattached subfactors —\t\t")
			for _, sf := range loose {
				fmt.Fprintf(w, "  %d %s\t%s\t\n", sf.Position, sf.Code, sf.Name)
				printQuestions(w, view, &sf.ID, "    ")
			}
		}

		if hasUntagged(view) {
			fmt.Fprintln(w, "— untagged questions —\t\t")
			printQuestions(w, view, nil, "  ")
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if incomplete := view.Incomplete(); len(incomplete) > 0 {
			fmt.Fprintf(os.Stderr, "\n%d question(s) have no answers and cannot be scored yet.\n", len(incomplete))
		}
		return nil
	},
}

func printQuestions(w *tabwriter.Writer, view *structure.Store, subfactorID *string, indent string) {
	for _, q := range view.SortedQuestions() {
		switch {
		case subfactorID == nil && q.SubfactorID != nil:
			continue
		case subfactorID != nil && (q.SubfactorID == nil || *q.SubfactorID != *subfactorID):
			continue
		}
		fmt.Fprintf(w, "%sQ%d\t%s\t%d answers\n", indent, q.Position, q.Text, len(q.Answers))
	}
}

func unattachedSubfactors(view *structure.Store) []model.Subfactor {
	var out []model.Subfactor
	for _, sf := range view.SortedSubfactors(nil) {
		if sf.FactorID == nil {
			out = append(out, sf)
		}
	}
	return out
}

func hasUntagged(view *structure.Store) bool {
	for _, q := range view.SortedQuestions() {
		if q.SubfactorID == nil {
			return true
		}
	}
	return false
}

var structureAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check every test's structure for invariant violations",
	Long:  "Fetches each test's structure concurrently and reports duplicate positions, dangling references and questions without answers.",
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
			return eris.Wrap(err, "structure audit")
		}
		if len(tests) == 0 {
			fmt.Fprintln(os.Stderr, "No tests found.")
			return nil
		}

		type report struct {
			test       model.Test
			findings   []structure.Finding
			incomplete int
		}
		reports := make([]report, len(tests))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for i, t := range tests {
			g.Go(func() error {
				view := structure.NewStore()
				agent := structure.NewSyncAgent(st, view)
				if err := agent.Reload(gctx, t.ID); err != nil {
					return eris.Wrapf(err, "audit %s", t.Code)
				}
				reports[i] = report{
					test:       t,
					findings:   view.Findings(),
					incomplete: len(view.Incomplete()),
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		clean := true
		for _, r := range reports {
			if len(r.findings) == 0 && r.incomplete == 0 {
				continue
			}
			clean = false
			fmt.Printf("%s (%s):\n", r.test.Code, r.test.ID)
			for _, f := range r.findings {
				fmt.Printf("  [%s] %s\n", f.Group, f.Detail)
			}
			if r.incomplete > 0 {
				fmt.Printf("  %d question(s) without answers\n", r.incomplete)
			}
		}
		if clean {
			fmt.Printf("All %d test(s) pass the structural checks.\n", len(tests))
		} else {
			zap.L().Warn("structure audit found issues", zap.Int("tests", len(tests)))
		}
		return nil
	},
}

func init() {
	structureShowCmd.Flags().String("test", "", "test ID")

	structureCmd.AddCommand(structureShowCmd)
	structureCmd.AddCommand(structureAuditCmd)
	rootCmd.AddCommand(structureCmd)
}
