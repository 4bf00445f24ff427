package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type rootOpts struct {
	cfgFile string
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	o := &rootOpts{logger: zap.NewNop()}
	cmd := &cobra.Command{
		Use:   "gradectl",
		Short: "Answer-key grading tools",
		Long: `gradectl grades detected problems against a workbook answer key offline,
imports YAML answer keys into the service database, and prepares admin
credentials.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !o.verbose {
				return nil
			}
			config := zap.NewDevelopmentConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			config.OutputPaths = []string{"stderr"}
			l, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			o.logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = o.logger.Sync()
		},
	}
	cmd.PersistentFlags().StringVar(&o.cfgFile, "config", "", "config file (database settings for import)")
	cmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "log each resolution stage to stderr")

	cmd.AddCommand(newResolveCmd(o), newImportCmd(o), newHashPasswordCmd())
	return cmd
}
