package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/duet-rtc/duet/internal/config"
	"github.com/duet-rtc/duet/internal/rtc"
	"github.com/duet-rtc/duet/internal/ui"
)

var statusServer string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show rooms and counters of a relay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(config.Options{ServerURL: statusServer})
		if err != nil {
			return err
		}

		stats, err := fetchStats(&http.Client{Timeout: 5 * time.Second}, cfg.StatsURL())
		if err != nil {
			return err
		}
		ui.RenderRelayStats(os.Stdout, cfg.StatsURL(), *stats)
		return nil
	},
}

func fetchStats(client *http.Client, url string) (*ui.RelayStats, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, rtc.NewError("fetch stats", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, rtc.WrapError("fetch stats", rtc.ErrSignaling, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	var stats ui.RelayStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, rtc.NewError("decode stats", err)
	}
	return &stats, nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusServer, "server", "S", "", "Relay websocket URL (default "+config.DefaultServerURL+")")
}
