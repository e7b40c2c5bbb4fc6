package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func documentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.close()

			docs, err := app.store.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			for _, d := range docs {
				fmt.Printf("%-4d v%-4d %s  %s\n", d.ID, d.LatestVersion, d.UpdatedAt, d.Title)
			}
			return nil
		},
	}
}
