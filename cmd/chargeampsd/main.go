package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chargeampsd/internal/cache"
	"chargeampsd/internal/chargeamps"
	"chargeampsd/internal/config"
	"chargeampsd/internal/db"
	"chargeampsd/internal/httpapi"
	"chargeampsd/internal/notifier"
	"chargeampsd/internal/repo"
	"chargeampsd/internal/services"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := chargeamps.New(cfg.APIURL, cfg.Username, cfg.Password, cfg.APIKey)

	setupCtx, setupCancel := context.WithTimeout(ctx, 30*time.Second)
	defer setupCancel()

	if err := client.Login(setupCtx); err != nil {
		log.Fatal(err)
	}

	ids, err := services.Discover(setupCtx, client, cfg.ChargePointIDs, log)
	if err != nil {
		log.Fatal(err)
	}

	snapshots := cache.New()
	handler := services.NewHandler(client, snapshots, ids, cfg.PollInterval, log)

	if cfg.DatabaseURL != "" {
		d, err := db.Connect(setupCtx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer d.Close()
		handler.SetHistory(repo.NewHistoryRepo(d.Pool))
	}

	if err := handler.UpdateInfo(setupCtx); err != nil {
		log.Fatal(err)
	}

	sensors := services.BuildSensors(handler, log)

	var publisher services.ReadingPublisher
	if cfg.NatsURL != "" {
		nn, err := notifier.NewNats(cfg.NatsURL, log)
		if err != nil {
			log.Fatal(err)
		}
		defer nn.Close()
		publisher = nn
	}

	updater := services.NewUpdater(sensors, cfg.PollInterval, publisher, log)
	go updater.Run(ctx)

	srv := httpapi.NewServer(cfg, handler, sensors, log)
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("chargeampsd listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	log.Info("chargeampsd shutdown complete")
}
