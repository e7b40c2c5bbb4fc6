package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "chat <document-id> <message>",
		Short: "Send a message to a document's agents",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid document id %q", args[0])
			}
			message := strings.Join(args[1:], " ")

			app, err := openApp()
			if err != nil {
				return err
			}
			defer app.close()
			if err := app.attachOrchestrator(); err != nil {
				return err
			}

			res, err := app.orch.HandleTurn(cmd.Context(), docID, target, message)
			if err != nil {
				return err
			}
			fmt.Printf("[%s] %s\n", res.AgentMessage.FromAgentType, res.AgentMessage.Message)
			fmt.Printf("document %d is now at version %d\n", docID, res.Version.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "address a workflow element directly by id")
	return cmd
}
