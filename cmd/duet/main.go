package main

import (
	"github.com/duet-rtc/duet/internal/cli"
	"github.com/duet-rtc/duet/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cli.Execute()
}
