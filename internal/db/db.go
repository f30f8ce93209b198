package db

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres
func Init() {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	ensureProfilesTable()
	ensureListingsTable()
	ensureLoopsTable()
	ensureOffersTable()
	ensureReviewsTable()
	ensureApplicationsTable()
	ensureLoopMessagesTable()
	ensureNotificationsTable()
}

// ensureProfilesTable creates the profiles table if missing
func ensureProfilesTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS profiles (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('member','plug','admin')),
            reputation INTEGER NOT NULL DEFAULT 0 CHECK (reputation >= 0),
            whatsapp_number TEXT NULL,
            store_name TEXT NULL,
            store_logo_url TEXT NULL,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
	if err != nil {
		log.Printf("failed to create profiles table: %v", err)
	}
}

// ensureListingsTable creates the listings table if missing
func ensureListingsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS listings (
            id UUID PRIMARY KEY,
            seller_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            title TEXT NOT NULL,
            description TEXT NULL,
            price NUMERIC(12,2) NOT NULL CHECK (price >= 0),
            type TEXT NOT NULL DEFAULT 'product' CHECK (type IN ('product','service')),
            status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active','sold','removed')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_listings_seller ON listings(seller_id);
        CREATE INDEX IF NOT EXISTS idx_listings_status ON listings(status);
    `)
	if err != nil {
		log.Printf("failed to create listings table: %v", err)
	}
}

// ensureLoopsTable creates the loops table if missing.
// The partial unique index backs the one-unresolved-loop-per-(listing,buyer) rule.
func ensureLoopsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS loops (
            id UUID PRIMARY KEY,
            listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
            buyer_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            seller_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','vendor_confirmed','completed')),
            pickup_location TEXT NULL,
            vendor_proof_url TEXT NULL,
            buyer_proof_url TEXT NULL,
            handshake_token TEXT NULL,
            vendor_confirmed_at TIMESTAMP WITH TIME ZONE NULL,
            buyer_confirmed_at TIMESTAMP WITH TIME ZONE NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            CHECK (buyer_id <> seller_id)
        );
        CREATE INDEX IF NOT EXISTS idx_loops_buyer ON loops(buyer_id);
        CREATE INDEX IF NOT EXISTS idx_loops_seller ON loops(seller_id);
        CREATE UNIQUE INDEX IF NOT EXISTS idx_loops_unresolved
            ON loops(listing_id, buyer_id)
            WHERE status IN ('pending','vendor_confirmed');
    `)
	if err != nil {
		log.Printf("failed to create loops table: %v", err)
	}
}

// ensureOffersTable creates the offers table if missing
func ensureOffersTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS offers (
            id UUID PRIMARY KEY,
            listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
            buyer_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            seller_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            amount NUMERIC(12,2) NOT NULL CHECK (amount >= 0),
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','accepted','rejected')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_offers_listing ON offers(listing_id);
        CREATE INDEX IF NOT EXISTS idx_offers_seller ON offers(seller_id);
    `)
	if err != nil {
		log.Printf("failed to create offers table: %v", err)
	}
}

// ensureReviewsTable creates the reviews table if missing
func ensureReviewsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS reviews (
            id UUID PRIMARY KEY,
            loop_id UUID NOT NULL UNIQUE REFERENCES loops(id) ON DELETE CASCADE,
            reviewer_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            reviewee_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
            comment TEXT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_reviews_reviewee ON reviews(reviewee_id);
    `)
	if err != nil {
		log.Printf("failed to create reviews table: %v", err)
	}
}

// ensureApplicationsTable creates the founding plug applications table if missing
func ensureApplicationsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS applications (
            id UUID PRIMARY KEY,
            user_id UUID NULL REFERENCES profiles(id) ON DELETE SET NULL,
            full_name TEXT NOT NULL,
            campus_email TEXT NULL,
            whatsapp_number TEXT NULL,
            store_name TEXT NOT NULL,
            store_logo_url TEXT NULL,
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','approved','rejected')),
            reviewed_by UUID NULL REFERENCES profiles(id) ON DELETE SET NULL,
            reviewed_at TIMESTAMP WITH TIME ZONE NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);
    `)
	if err != nil {
		log.Printf("failed to create applications table: %v", err)
	}
}

// ensureLoopMessagesTable creates the per-loop chat table if missing
func ensureLoopMessagesTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS loop_messages (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            loop_id UUID NOT NULL REFERENCES loops(id) ON DELETE CASCADE,
            sender_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            body TEXT NOT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_loop_messages_loop ON loop_messages(loop_id, created_at);
    `)
	if err != nil {
		log.Printf("failed to create loop_messages table: %v", err)
	}
}

// ensureNotificationsTable creates notifications table for in-app alerts
func ensureNotificationsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            type TEXT NOT NULL,
            title TEXT NOT NULL,
            body TEXT,
            reference UUID NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            read_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE read_at IS NULL;
    `)
	if err != nil {
		log.Printf("failed to create notifications table: %v", err)
	}
}
