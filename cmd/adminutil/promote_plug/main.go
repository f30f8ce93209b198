package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/loops-platforms/loops-backend/internal/db"
)

// promote_plug sets a user's role to 'plug' by email, bypassing the
// application review flow. Intended for local setup and support work.
// Usage:
//   go run cmd/adminutil/promote_plug/main.go -email user@example.com
func main() {
	email := flag.String("email", "", "Email of the user to promote to plug")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run cmd/adminutil/promote_plug/main.go -email user@example.com")
	}

	// Initialize DB from environment variables
	db.Init()

	// Promote the user and seed the starting reputation a reviewed
	// application would have granted
	ct, err := db.Conn.Exec(context.Background(),
		`UPDATE profiles SET role = 'plug', reputation = GREATEST(reputation, 100) WHERE email = $1`, *email)
	if err != nil {
		log.Fatalf("failed to promote user to plug: %v", err)
	}

	if ct.RowsAffected() == 0 {
		log.Fatalf("no user found with email: %s", *email)
	}

	fmt.Printf("User %s promoted to plug.\n", *email)
}
