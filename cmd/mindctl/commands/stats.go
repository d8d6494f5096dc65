package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsAPIURL string

// StatsCmd shows aggregate node statistics.
var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate stats",
	Long:  `Show memory, knowledge, and success-rate aggregates for the node.`,
	Run: func(cmd *cobra.Command, args []string) {
		body := getJSON(statsAPIURL + "/api/stats")

		var stats struct {
			TotalMemories      int     `json:"totalMemories"`
			KnowledgeNodeCount int     `json:"knowledgeNodeCount"`
			AvgSuccessRate     float64 `json:"avgSuccessRate"`
			Participants       int     `json:"participants"`
		}
		if err := json.Unmarshal(body, &stats); err != nil {
			fmt.Printf("Error parsing response: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Participants:     %d\n", stats.Participants)
		fmt.Printf("Total memories:   %d\n", stats.TotalMemories)
		fmt.Printf("Knowledge nodes:  %d\n", stats.KnowledgeNodeCount)
		fmt.Printf("Avg success rate: %.2f\n", stats.AvgSuccessRate)
	},
}

func init() {
	StatsCmd.Flags().StringVar(&statsAPIURL, "api-url", "http://localhost:8080", "API URL")
}
