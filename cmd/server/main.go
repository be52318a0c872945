package main

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"pulse/internal/auth"
	"pulse/internal/config"
	"pulse/internal/content"
	"pulse/internal/handlers"
	"pulse/internal/identity"
	"pulse/internal/storage"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatal(err)
	}

	store, err := storage.Open(filepath.Join(cfg.DataDir, "pulse.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ident := identity.New(store, identity.BcryptChecker)
	ident.SeedDefaults()

	cont := content.New(store, ident)

	sessions := auth.NewManager(time.Duration(cfg.SessionTTL))

	h := handlers.New(ident, cont, sessions)

	log.Printf("listening on %s", cfg.Addr)
	// Recovery middleware wraps the whole router so a panicking handler
	// returns a 500 instead of taking the server down.
	if err := http.ListenAndServe(cfg.Addr, handlers.WithRecover(h.Router())); err != nil {
		log.Fatal(err)
	}
}
