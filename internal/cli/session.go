package cli

import (
	"context"

	"github.com/duet-rtc/duet/internal/config"
	"github.com/duet-rtc/duet/internal/rtc"
	"github.com/duet-rtc/duet/internal/signalclient"
)

// ConnectionContext bundles the relay connection of one command run.
type ConnectionContext struct {
	Client  *signalclient.Client
	Handler *signalclient.Handler
	Config  *config.Config
}

func NewConnectionContext(ctx context.Context, cfg *config.Config) (*ConnectionContext, error) {
	client := signalclient.NewClient(cfg.ServerURL)
	if err := client.Connect(ctx); err != nil {
		return nil, rtc.NewError("connect to server", err)
	}

	handler := signalclient.NewHandler(client)
	go handler.Start()

	return &ConnectionContext{
		Client:  client,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (c *ConnectionContext) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

func LoadConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, rtc.NewError("load config", err)
	}
	return cfg, nil
}
