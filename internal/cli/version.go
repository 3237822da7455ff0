package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/soyeahso/sidekick/internal/version"
)

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if !asJSON {
				_, err := fmt.Fprintln(w, version.Info())
				return err
			}
			b := version.Current()
			return json.NewEncoder(w).Encode(map[string]any{
				"version":  b.Version,
				"commit":   b.Commit,
				"date":     b.Date,
				"dirty":    b.Dirty,
				"go":       runtime.Version(),
				"platform": runtime.GOOS + "/" + runtime.GOARCH,
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
