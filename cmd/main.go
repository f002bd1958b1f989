package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicvoice/civicvoice_api/config"
	"github.com/civicvoice/civicvoice_api/internal/db"
	api "github.com/civicvoice/civicvoice_api/internal/http/rest"
	"github.com/civicvoice/civicvoice_api/internal/ledger"
	"github.com/civicvoice/civicvoice_api/internal/moderation"
	"github.com/civicvoice/civicvoice_api/internal/store"
	"github.com/civicvoice/civicvoice_api/internal/store/memstore"
	"github.com/civicvoice/civicvoice_api/internal/store/pgstore"
	"github.com/jonboulle/clockwork"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
)

func main() {
	cfg := config.New()
	clock := clockwork.NewRealClock()

	var (
		feedbackStore store.Store
		database      *db.DB
	)
	if cfg.Dsn != "" {
		var err error
		database, err = db.New(cfg.Dsn)
		if err != nil {
			log.Panicln("failed to connect to database", "error", err)
		}
		feedbackStore = pgstore.New(database)
	} else {
		log.Println("no DSN configured, using in-memory store")
		feedbackStore = memstore.New()
	}

	a := &api.API{
		Config:     cfg,
		Store:      feedbackStore,
		Ledger:     ledger.New(feedbackStore, clock),
		Moderation: moderation.New(feedbackStore, clock, cfg.FlagThreshold),
	}

	go func() {
		log.Printf("Server running on port %v ...", cfg.Port)
		log.Fatal(a.Serve())
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	log.Println("Request to shutdown server. Waiting ", allowConnectionsAfterShutdown)
	waitTimer := time.NewTimer(allowConnectionsAfterShutdown)
	<-waitTimer.C

	log.Println("Shutting down server...")

	if err := a.Shutdown(); err != nil {
		log.Println("server shutdown failed", "error", err)
	}
	if database != nil {
		database.Close()
		log.Println("Database connections closed.")
	}
}
