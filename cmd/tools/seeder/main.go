package main

import (
	"database/sql"
	"flag"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/noah-isme/gym-billing/internal/vatrate"
)

const insertRate = `
INSERT INTO vat_rates (id, tenant_id, code, description, percentage, nature)
VALUES ($1, $2, $3, $4, $5::numeric, NULLIF($6, ''))
ON CONFLICT (tenant_id, code) DO UPDATE
SET description = EXCLUDED.description, percentage = EXCLUDED.percentage, nature = EXCLUDED.nature`

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	tenantFlag := flag.String("tenant", os.Getenv("TENANT_DEFAULT"), "tenant (gym) UUID to seed")
	flag.Parse()

	tenantID, err := uuid.Parse(*tenantFlag)
	if err != nil {
		log.Fatalf("Invalid tenant id %q: %v", *tenantFlag, err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	log.Printf("Seeding VAT rates for tenant %s", tenantID)
	for _, r := range vatrate.ItalianDefaults(tenantID) {
		if err := r.Validate(); err != nil {
			log.Fatalf("Invalid default rate %s: %v", r.Code, err)
		}
		if _, err := db.Exec(insertRate, uuid.New(), tenantID, r.Code, r.Description, r.Percentage.String(), r.Nature); err != nil {
			log.Fatalf("Failed to seed rate %s: %v", r.Code, err)
		}
		log.Printf("  %-3s %6s%%  %s", r.Code, r.Percentage.StringFixed(2), r.Description)
	}

	log.Println("Seeding completed successfully!")
}
