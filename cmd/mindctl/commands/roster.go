package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var rosterAPIURL string

// RosterCmd lists the participant roster.
var RosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "List participants",
	Long:  `List the roster of participants on the node.`,
	Run: func(cmd *cobra.Command, args []string) {
		body := getJSON(rosterAPIURL + "/api/participants")

		var resp struct {
			Participants []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				Role string `json:"role"`
			} `json:"participants"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			fmt.Printf("Error parsing response: %v\n", err)
			os.Exit(1)
		}

		for _, p := range resp.Participants {
			fmt.Printf("%-10s %-10s %s\n", p.ID, p.Role, p.Name)
		}
	},
}

func init() {
	RosterCmd.Flags().StringVar(&rosterAPIURL, "api-url", "http://localhost:8080", "API URL")
}

// getJSON fetches a URL and returns the body, exiting on failure.
func getJSON(url string) []byte {
	resp, err := http.Get(url)
	if err != nil {
		fmt.Printf("Error contacting node: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Error reading response: %v\n", err)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Node returned %d: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}
	return body
}
