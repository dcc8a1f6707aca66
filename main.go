package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/Chative-Voice-Agents/pkg/config"
	_ "github.com/tanpawarit/Chative-Voice-Agents/pkg/logger/autoload"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("voice agent exited")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "voice-agents",
		Short:         "Phone agents for lead capture, fraud verification and grocery ordering",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configx.SetEnvFile(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file (default .env.local, then .env)")

	root.AddCommand(newRunCmd(), newToolsCmd())
	return root
}
