package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ritzau/org-directory/pkg/output"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configured source for duplicate names and management cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// Duplicates are reported here, not rejected at load
			cfg.RejectDuplicates = false
			st, err := loadOnce(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if !output.PrintValidation(cmd.OutOrStdout(), st.Snapshot()) {
				return withCode(exitIssues, errors.New("directory has issues"))
			}
			return nil
		},
	}
}
