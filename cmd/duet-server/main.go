package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/duet-rtc/duet/internal/config"
	"github.com/duet-rtc/duet/internal/log"
	"github.com/duet-rtc/duet/internal/metrics"
	"github.com/duet-rtc/duet/internal/server"
	"github.com/duet-rtc/duet/internal/signaling"
	"github.com/duet-rtc/duet/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "duet-server",
	Short:   "WebRTC signaling relay for two-person rooms",
	Version: version.Version,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadServer(cmd.Flags())
		if err != nil {
			return err
		}
		if err := log.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg)
	},
}

func run(ctx context.Context, cfg config.ServerConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := metrics.New()

	// 1. Create the Hub and run its event loop
	hub := signaling.NewHub(m)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	// 2. Serve HTTP until ctx is cancelled
	log.Infof("starting duet-server %s", version.Version)
	err := server.New(cfg, hub, m).Run(ctx)

	cancel()
	<-hubDone
	return err
}

func main() {
	config.RegisterServerFlags(rootCmd.Flags())
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
