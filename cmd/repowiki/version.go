package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the repowiki version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("repowiki " + version)
			return nil
		},
	}
}
