package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func versionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions <document-id>",
		Short: "List a document's versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid document id %q", args[0])
			}

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.close()

			versions, err := app.store.ListVersions(cmd.Context(), docID)
			if err != nil {
				return err
			}
			for _, v := range versions {
				marker := " "
				if v.IsActive {
					marker = "*"
				}
				fmt.Printf("%s v%-4d %s  %d elements\n", marker, v.Version, v.CreatedAt, len(v.Elements))
			}
			return nil
		},
	}
}
