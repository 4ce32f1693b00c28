package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/cyberheroes/portal/cmd/portal/accounts"
	"github.com/cyberheroes/portal/cmd/portal/serve"
)

func main() {
	app := &cli.App{
		Name:  "portal",
		Usage: "CyberHeroes portal: auth service for the kids cybersecurity site",
		Commands: []*cli.Command{
			serve.Cmd(),
			accounts.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
	}
}
