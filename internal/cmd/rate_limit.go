package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sonarlens/sonarlens/internal/config"
	"github.com/sonarlens/sonarlens/internal/output"
	"github.com/sonarlens/sonarlens/internal/server/handlers"
)

var (
	rateLimitServer       string
	rateLimitStatusOutput string
)

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit",
	Short: "Inspect and manage the server's rate limiter",
}

var rateLimitStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the server's current rate limit window",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(rateLimitStatusOutput)
		if err != nil {
			return err
		}

		var status handlers.RateLimitStatus
		if err := rateLimitRequest(http.MethodGet, "/v1/ratelimit", &status); err != nil {
			return err
		}

		if format == output.FormatJSON {
			payload, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		}

		state := "disabled"
		if status.Enabled {
			state = "enabled"
		}
		fmt.Printf("Rate limiting: %s\n", state)
		fmt.Printf("Window: %ds, limit %d\n", status.WindowSeconds, status.Limit)
		fmt.Printf("Used: %d, remaining %d\n", status.Used, status.Remaining)
		return nil
	},
}

var rateLimitResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the server's rate limit window",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := rateLimitRequest(http.MethodPost, "/v1/ratelimit/reset", nil); err != nil {
			return err
		}
		fmt.Println("Rate limit window cleared")
		return nil
	},
}

// rateLimitRequest calls the management endpoint on the running server.
func rateLimitRequest(method, path string, out any) error {
	base := strings.TrimSpace(rateLimitServer)
	if base == "" {
		cfg := config.GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration not loaded")
		}
		base = fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("contact server at %s: %w", base, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func init() {
	rateLimitCmd.PersistentFlags().StringVar(&rateLimitServer, "server", "", "server base URL (default from config)")
	rateLimitStatusCmd.Flags().StringVar(&rateLimitStatusOutput, "output-format", string(output.FormatTable), "Output format: table|json")

	rateLimitCmd.AddCommand(rateLimitStatusCmd)
	rateLimitCmd.AddCommand(rateLimitResetCmd)
	rootCmd.AddCommand(rateLimitCmd)
}
