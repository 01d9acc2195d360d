package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	rootCmd   = &cobra.Command{
		Use:   "clip-relay",
		Short: "Clip-Relay CLI - Chat media relay administration",
		Long:  `A command-line interface for inspecting and driving a running clip-relay server.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(downloadsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(relayCmd)

	downloadsCmd.Flags().Int("limit", 50, "Maximum number of records to show")
	relayCmd.Flags().String("caption", "", "Caption to attach to the delivered video")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server health",
	Run: func(cmd *cobra.Command, args []string) {
		body := getJSON("/health")

		var health map[string]interface{}
		json.Unmarshal(body, &health)

		fmt.Println("Server Status:")
		fmt.Printf("  Status:      %v\n", health["status"])
		fmt.Printf("  Version:     %v\n", health["version"])
		fmt.Printf("  Active jobs: %v\n", health["active_jobs"])
	},
}

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "List recent downloads",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		body := getJSON(fmt.Sprintf("/api/v1/downloads?limit=%d", limit))

		var result struct {
			Downloads []map[string]interface{} `json:"downloads"`
		}
		json.Unmarshal(body, &result)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tREQUESTER\tPLATFORM\tURL\tCREATED")
		for _, d := range result.Downloads {
			fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%s\n",
				truncate(stringField(d, "id"), 8),
				d["requester_id"],
				stringField(d, "platform"),
				truncate(stringField(d, "url"), 50),
				stringField(d, "created_at"))
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show relay statistics",
	Run: func(cmd *cobra.Command, args []string) {
		body := getJSON("/api/v1/stats")

		var stats map[string]interface{}
		json.Unmarshal(body, &stats)

		fmt.Println("Relay Statistics:")
		fmt.Printf("  Users:     %v\n", stats["users"])
		fmt.Printf("  Linked:    %v\n", stats["linked"])
		fmt.Printf("  Downloads: %v\n", stats["downloads"])
	},
}

var relayCmd = &cobra.Command{
	Use:   "relay [user-id] [video-url]",
	Short: "Deliver a resolved video URL straight to a chat",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		caption, _ := cmd.Flags().GetString("caption")
		payload := map[string]interface{}{
			"user_id":   jsonNumber(args[0]),
			"video_url": args[1],
		}
		if caption != "" {
			payload["caption"] = caption
		}

		data, _ := json.Marshal(payload)
		resp, err := http.Post(serverURL+"/api/v1/instagram", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusAccepted {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}
		fmt.Println("Delivery accepted")
	},
}

func getJSON(path string) []byte {
	resp, err := http.Get(serverURL + path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
		os.Exit(1)
	}
	return body
}

func stringField(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func jsonNumber(s string) json.Number {
	return json.Number(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
