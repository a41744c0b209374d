package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vouchsec/vouch/internal/adapters/render/transcript"
)

func newSessionsCmd(app *app) *cobra.Command {
	var fullTurns bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded interview sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := app.engine.List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(sessions)
			}

			rendered, err := transcript.Render(sessions, transcript.RenderOptions{
				Now:       time.Now(),
				FullTurns: fullTurns,
			})
			if err != nil {
				return fmt.Errorf("render sessions: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&fullTurns, "full", false, "Include conversation turns")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Raw JSON output")

	return cmd
}
