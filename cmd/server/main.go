package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/affinity/internal/buildinfo"
	"github.com/dmitrijs2005/affinity/internal/logging"
	"github.com/dmitrijs2005/affinity/internal/server"
	"github.com/dmitrijs2005/affinity/internal/server/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewJSONLogger(os.Stdout, cfg.LogLevel)

	app, err := server.NewApp(ctx, cfg, logger)

	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	app.Run(ctx)

}
