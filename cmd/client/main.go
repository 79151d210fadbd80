package main

import (
	"fmt"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/client"
	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/service"
	"github.com/MKhiriev/go-mail-sync/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewEngineLogger("mail-sync-engine")
	cfg, err := config.GetEngineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, cfg.App, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create server adapter")
	}

	storages, err := store.NewEngineStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create engine storages")
	}

	services := service.NewClientServices(cfg, *storages, serverAdapter, log)

	app, err := client.NewApp(services, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init engine app error")
	}

	if err = app.Run(); err != nil {
		log.Fatal().Err(err).Msg("engine run error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
