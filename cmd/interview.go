package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vouchsec/vouch/internal/adapters/render/transcript"
	"github.com/vouchsec/vouch/internal/application"
	"github.com/vouchsec/vouch/internal/domain"
)

// newInterviewCmd runs a full interview in the terminal: the same engine the
// HTTP API uses, with typed answers standing in for transcribed speech.
func newInterviewCmd(app *app) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Run a verification interview in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := app.engine.Start(cmd.Context(), language)
			if err != nil {
				return fmt.Errorf("start interview: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "investigator: %s\n", application.OpeningPrompt(session))

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				utterance := strings.TrimSpace(scanner.Text())

				var decision domain.Decision
				err := runThinkingSpinner(cmd.Context(), out, func() error {
					var processErr error
					decision, processErr = app.engine.Process(cmd.Context(), session.ID, utterance)
					return processErr
				})
				if err != nil {
					return fmt.Errorf("process answer: %w", err)
				}

				fmt.Fprintf(out, "investigator: %s\n", decision.Message)

				if decision.Status.Terminal() {
					resolved, err := app.engine.Get(cmd.Context(), session.ID)
					if err != nil {
						return fmt.Errorf("load resolved session: %w", err)
					}
					fmt.Fprintln(out)
					fmt.Fprintln(out, transcript.Transcript(resolved))
					return nil
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read answer: %w", err)
			}

			fmt.Fprintln(out, "interview left unresolved, session stays ACTIVE")
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "lang", "en", "Interview language code")

	return cmd
}
