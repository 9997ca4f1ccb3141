package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/orientavida/assess-cli/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a test's structure for review",
	Long:  "Writes the full structure as YAML (to stdout or a file) or as an XLSX workbook with one sheet per factor.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		testID, _ := cmd.Flags().GetString("test")
		sess, st, err := initSession(ctx, testID)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")

		switch format {
		case "yaml":
			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return eris.Wrap(err, "export: create output file")
				}
				defer f.Close() //nolint:errcheck
				w = f
			}
			if err := export.WriteYAML(w, sess.View()); err != nil {
				return err
			}
		case "xlsx":
			if out == "" {
				return eris.New("--out is required for xlsx")
			}
			if err := export.WriteXLSX(out, sess.View()); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", out)
		default:
			return eris.Errorf("unsupported format: %s", format)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("test", "", "test ID")
	exportCmd.Flags().String("format", "yaml", "output format: yaml or xlsx")
	exportCmd.Flags().String("out", "", "output file path")

	rootCmd.AddCommand(exportCmd)
}
