package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ritzau/org-directory/pkg/hierarchy"
	"github.com/ritzau/org-directory/pkg/output"
)

func newTreeCmd() *cobra.Command {
	var locations bool

	cmd := &cobra.Command{
		Use:   "tree [name]",
		Short: "Print the reporting tree under a person, or the whole directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			st, err := loadOnce(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if len(args) == 0 {
				forest, err := st.Forest()
				if err != nil {
					return queryError(err)
				}
				for _, root := range forest {
					output.PrintTree(w, root)
				}
				return nil
			}

			tree, err := st.Hierarchy(args[0])
			if err != nil {
				if suggestions := st.Suggest(args[0], 3); len(suggestions) > 0 && errors.Is(err, hierarchy.ErrNotFound) {
					fmt.Fprintf(cmd.ErrOrStderr(), "Did you mean: %v\n", suggestions)
				}
				return queryError(err)
			}
			output.PrintTree(w, tree)

			if locations {
				groups, err := st.MapData(args[0])
				if err != nil {
					return queryError(err)
				}
				fmt.Fprintln(w)
				output.PrintLocations(w, groups)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&locations, "locations", false, "Also list where the team is located")
	return cmd
}
