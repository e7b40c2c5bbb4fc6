package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func revertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revert <document-id> <version>",
		Short: "Restore an earlier document version",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid document id %q", args[0])
			}
			version, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[1])
			}

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.close()

			reverted, err := app.store.Revert(cmd.Context(), docID, version)
			if err != nil {
				return err
			}
			fmt.Printf("document %d reverted to version %d\n", docID, reverted.Version)
			return nil
		},
	}
}
