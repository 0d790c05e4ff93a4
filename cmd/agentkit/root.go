// cmd/agentkit/root.go
package main

import (
	"github.com/spf13/cobra"

	"agentkit-workers/internal/app"
	"agentkit-workers/internal/common/config"
	"agentkit-workers/internal/common/logger"
)

// session is what every command gets after the persistent pre-run.
type session struct {
	configPath string

	cfg      *config.Config
	log      logger.Logger
	services *app.Services
}

func (s *session) load() error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.log = logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	s.services = app.New(cfg, s.log)
	return nil
}

func (s *session) close() {
	if s.services != nil {
		s.services.Close()
		s.services = nil
	}
}

// newRootCmd builds the command tree around s. The caller closes s after Execute, which
// also covers commands that fail.
func newRootCmd(s *session) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "agentkit",
		Short:         "Fetch tweets, summarize them and act on chain",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&s.configPath, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(newFetchCmd(s))
	rootCmd.AddCommand(newSummarizeCmd(s))
	rootCmd.AddCommand(newAnalyzeCmd(s))
	rootCmd.AddCommand(newWalletCmd(s))
	rootCmd.AddCommand(newContractCmd(s))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
