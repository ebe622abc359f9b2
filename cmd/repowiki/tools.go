package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repowiki/agent/internal/tool"
)

// toolsCmd lists the registered tools and their schemas, useful for
// debugging the contract the LLM sees (spec.md §6 "LLM tool schema
// shape").
func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the built-in tools and their argument schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := tool.NewRegistry()
			if err := tool.RegisterAll(registry, 120); err != nil {
				return fmt.Errorf("register tools: %w", err)
			}

			for _, schema := range registry.ToolSchemas() {
				schemaJSON, err := json.Marshal(schema.ArgumentSchema)
				if err != nil {
					return fmt.Errorf("marshal schema for %s: %w", schema.Name, err)
				}
				fmt.Printf("%s — %s\n  %s\n", schema.Name, schema.Description, schemaJSON)
			}
			return nil
		},
	}
}
