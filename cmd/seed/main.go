package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/campuskit/users-service/config"
)

// Seeds a handful of demo users for local development. Existing login
// names are updated in place so the command can be run repeatedly.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	seeds := []struct {
		loginName, email, first, last string
	}{
		{"alice", "alice@example.com", "Alice", "Archer"},
		{"bob", "bob@example.com", "Bob", "Becker"},
		{"carol", "carol@example.com", "Carol", "Clark"},
	}

	now := time.Now().UTC()
	for _, s := range seeds {
		var id int64
		err := db.QueryRow(`
			INSERT INTO users (login_name, email_address, first_name, last_name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (login_name) DO UPDATE
			SET email_address = EXCLUDED.email_address,
			    first_name    = EXCLUDED.first_name,
			    last_name     = EXCLUDED.last_name,
			    updated_at    = EXCLUDED.updated_at
			RETURNING id
		`, s.loginName, s.email, s.first, s.last, now).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", s.loginName, err)
		}
		fmt.Printf("seeded user: id=%d login_name=%s email=%s\n", id, s.loginName, s.email)
	}
}
