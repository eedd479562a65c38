// Package cli implements the duet terminal peer commands.
package cli

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/duet-rtc/duet/internal/ui"
	"github.com/duet-rtc/duet/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "duet",
	Short: "Two-person WebRTC chat from the terminal",
	Long: `duet joins a room on a duet signaling relay and opens a direct WebRTC data
channel to the other person in the room. Only the connection setup passes
through the relay; chat messages travel peer to peer.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		os.Exit(0)
	}()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
