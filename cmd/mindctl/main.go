package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindmesh-labs/mindmesh/cmd/mindctl/commands"
)

var rootCmd = &cobra.Command{
	Use:   "mindctl",
	Short: "mindmesh control CLI",
	Long:  `Command line interface for inspecting and driving a mindmesh node.`,
}

func init() {
	rootCmd.AddCommand(commands.RosterCmd)
	rootCmd.AddCommand(commands.StatsCmd)
	rootCmd.AddCommand(commands.CollaborateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
