package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func createCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new design document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.close()

			title := strings.Join(args, " ")
			doc, version, err := app.store.CreateDocument(cmd.Context(), app.schema.Name, title)
			if err != nil {
				return err
			}
			fmt.Printf("created document %d %q (version %d)\n", doc.ID, doc.Title, version.Version)
			return nil
		},
	}
}
