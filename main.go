package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Rendurdreams/CoinFetch/collector"
	"github.com/Rendurdreams/CoinFetch/config"
	"github.com/Rendurdreams/CoinFetch/logger"
	"github.com/Rendurdreams/CoinFetch/reader/cmc"
	"github.com/Rendurdreams/CoinFetch/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	interval := flag.Duration("interval", 0, "Override the collection interval from the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if *interval > 0 {
		cfg.Collector.Interval = *interval
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		log.WithError(err).Error("Missing required credentials")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Coinfetch.Name,
		"version":     cfg.Coinfetch.Version,
		"environment": config.AppEnvironment(),
		"mode":        cfg.Collector.Mode,
	}).Info("starting coinfetch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Logging.CloudWatch {
		logger.InitCloudWatch(cfg.Storage.Archive.Region, cfg.Logging.Namespace, cfg.Logging.DashboardName)
	}
	if cfg.Logging.ReportInterval > 0 {
		logger.StartReport(ctx, log, cfg.Logging.ReportInterval)
	}

	client := cmc.NewClient(cfg, secrets.CMCAPIKey)

	startupCtx, startupCancel := context.WithTimeout(ctx, 30*time.Second)
	store, err := writer.NewStore(startupCtx, cfg, secrets)
	startupCancel()
	if err != nil {
		log.WithError(err).Error("Failed to connect to storage backend")
		os.Exit(1)
	}
	defer store.Close()

	var archive collector.Archiver
	if cfg.Storage.Archive.Enabled {
		a, err := writer.NewArchiver(cfg)
		if err != nil {
			log.WithError(err).Error("Failed to create raw payload archiver")
			os.Exit(1)
		}
		archive = a
	}

	col := collector.New(cfg, client, store, archive)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("received signal, shutting down")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := col.Run(ctx); err != nil {
			log.WithError(err).Error("collector stopped with error")
		}
	}()

	wg.Wait()
	log.Info("coinfetch stopped")
}
