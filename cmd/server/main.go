package main

import (
	"context"
	"log"
	"os"

	"github.com/al0nec0der/MarkPDF/internal/buildinfo"
	"github.com/al0nec0der/MarkPDF/internal/server"
	"github.com/al0nec0der/MarkPDF/internal/server/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)
}
