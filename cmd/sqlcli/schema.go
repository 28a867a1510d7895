package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the schema description sent to the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, database, _, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close()

			info, err := database.TableInfo(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "-- dialect: %s\n%s\n", database.Dialect(), info)
			return nil
		},
	}
}
