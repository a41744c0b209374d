package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vouch",
		Short:         "vouch: conversational fraud-verification interviews",
		Long:          "vouch runs short adaptive verification interviews against an upstream generative model, serves them over HTTP for the voice frontend, and keeps an auditable record of every session and verdict.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(app),
		newInterviewCmd(app),
		newSessionsCmd(app),
	)

	return rootCmd
}
