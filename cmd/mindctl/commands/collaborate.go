package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	collabAPIURL       string
	collabTopic        string
	collabParticipants string
	collabRounds       int
)

// CollaborateCmd triggers a dialogue workflow.
var CollaborateCmd = &cobra.Command{
	Use:   "collaborate",
	Short: "Start a dialogue",
	Long:  `Start a multi-round dialogue between participants and print the consensus.`,
	Run: func(cmd *cobra.Command, args []string) {
		if collabTopic == "" {
			fmt.Println("Error: topic is required")
			os.Exit(1)
		}

		payload := map[string]interface{}{
			"topic":     collabTopic,
			"maxRounds": collabRounds,
		}
		if collabParticipants != "" {
			payload["participants"] = strings.Split(collabParticipants, ",")
		}

		data, _ := json.Marshal(payload)
		resp, err := http.Post(collabAPIURL+"/api/workflows/collaborate", "application/json", bytes.NewReader(data))
		if err != nil {
			fmt.Printf("Error contacting node: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("Node returned %d: %s\n", resp.StatusCode, string(body))
			os.Exit(1)
		}

		var dialogue struct {
			Turns []struct {
				ParticipantID string `json:"participant_id"`
				Message       string `json:"message"`
			} `json:"turns"`
			Consensus string `json:"consensus"`
		}
		if err := json.Unmarshal(body, &dialogue); err != nil {
			fmt.Printf("Error parsing response: %v\n", err)
			os.Exit(1)
		}

		for _, t := range dialogue.Turns {
			fmt.Printf("[%s] %s\n\n", t.ParticipantID, t.Message)
		}
		if dialogue.Consensus != "" {
			fmt.Printf("=== Consensus ===\n%s\n", dialogue.Consensus)
		}
	},
}

func init() {
	CollaborateCmd.Flags().StringVar(&collabAPIURL, "api-url", "http://localhost:8080", "API URL")
	CollaborateCmd.Flags().StringVar(&collabTopic, "topic", "", "Dialogue topic")
	CollaborateCmd.Flags().StringVar(&collabParticipants, "participants", "", "Comma-separated participant ids (default: whole roster)")
	CollaborateCmd.Flags().IntVar(&collabRounds, "rounds", 0, "Number of rounds (default: node setting)")
	CollaborateCmd.MarkFlagRequired("topic")
}
