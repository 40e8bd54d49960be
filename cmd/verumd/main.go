package main

import (
	"log"

	"github.com/Liamhigh/Verumlast/internal/config"
	"github.com/Liamhigh/Verumlast/internal/infra/db"
	httpinfra "github.com/Liamhigh/Verumlast/internal/infra/http"
)

func main() {
	cfg := config.FromEnv()

	store, err := db.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("failed to migrate store: %v", err)
	}

	srv := httpinfra.NewServer(cfg, store)
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
