package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/answerkey"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/config"
	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/db"
)

func newImportCmd(o *rootOpts) *cobra.Command {
	var (
		keysFile string
		replace  bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a YAML answer key into the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(o.cfgFile)
			if err != nil {
				return err
			}
			wb, records, err := answerkey.LoadFile(keysFile)
			if err != nil {
				return err
			}

			dbh, err := db.Open(cmd.Context(), db.Driver(cfg.DBDriver), cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer dbh.Close()
			store := answerkey.NewSQLStore(dbh)

			put := store.PutWorkbook
			if replace {
				put = store.ReplaceWorkbook
			}
			n, err := put(cmd.Context(), wb, records)
			if err != nil {
				return err
			}
			o.logger.Info("answer key imported", zap.String("workbook_id", wb.ID), zap.Int("records", n))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d records into %s\n", n, wb.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&keysFile, "keys", "", "answer key YAML file")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the workbook's existing key")
	_ = cmd.MarkFlagRequired("keys")
	return cmd
}
