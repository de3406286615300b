// Command aurad runs the AuraDB server: it opens (or creates) an
// encrypted database file and serves the query protocol over TCP.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/auradb/aura/internal/query"
	"github.com/auradb/aura/internal/security"
	"github.com/auradb/aura/internal/session"
	"github.com/auradb/aura/internal/storage/pager"
)

var (
	flagAddr    = flag.String("addr", "0.0.0.0:7654", "TCP listen address")
	flagDB      = flag.String("db", "aura_main.db", "path to the database file")
	flagKeyFile = flag.String("keyfile", "", "path to persist/load the pager master key (generated in memory if absent)")
)

func main() {
	flag.Parse()

	masterKey, err := loadOrGenerateKey(*flagKeyFile)
	if err != nil {
		log.Fatalf("master key: %v", err)
	}

	p, err := pager.Open(*flagDB, masterKey)
	if err != nil {
		log.Fatalf("open database %s: %v", *flagDB, err)
	}
	defer p.Close()

	engine, err := query.NewEngine(p)
	if err != nil {
		log.Fatalf("initialize query engine: %v", err)
	}

	srv, err := session.NewServer(*flagAddr, engine)
	if err != nil {
		log.Fatalf("listen on %s: %v", *flagAddr, err)
	}
	log.Printf("aurad listening on %s (db=%s)", srv.Addr(), *flagDB)

	if err := srv.Serve(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// loadOrGenerateKey reads a persisted master key from path, or generates
// and persists a fresh one if path does not exist yet. An empty path yields
// a freshly generated key that is kept in memory only. The
// original server kept the master key in memory only; persisting it
// across restarts when a keyfile is given is this project's own addition
// so a database can actually be reopened.
func loadOrGenerateKey(path string) ([]byte, error) {
	if path == "" {
		return security.GenerateKey()
	}

	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != security.KeySize {
			log.Fatalf("keyfile %s does not contain a %d-byte key", path, security.KeySize)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	key, err = security.GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}
