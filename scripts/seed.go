package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
	"github.com/luluspa/spa-booking-backend/internal/infrastructure/clients/postgres"
	"github.com/luluspa/spa-booking-backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()
	db := goqu.New("postgres", pgClient.DB())

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				bookings,
				vouchers,
				services
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	now := time.Now()

	// 1. Seed Services
	services := []entities.Service{
		{ID: uuid.New().String(), Name: "Deep Cleansing Facial", Category: "Facial", Price: 450000, Currency: "VND", Duration: 60, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Hot Stone Massage", Category: "Massage", Price: 550000, Currency: "VND", Duration: 90, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Aroma Massage", Category: "Massage", Price: 350000, Currency: "VND", Duration: 60, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Herbal Body Scrub", Category: "Body", Price: 400000, Currency: "VND", Duration: 45, IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Name: "Foot Reflexology", Category: "Massage", Price: 250000, Currency: "VND", Duration: 45, IsActive: true, CreatedAt: now, UpdatedAt: now},
	}

	for _, s := range services {
		query, args, err := db.Insert("services").Rows(goqu.Record{
			"id": s.ID, "name": s.Name, "category": s.Category,
			"price": s.Price, "currency": s.Currency, "duration": s.Duration,
			"is_active": s.IsActive, "created_at": s.CreatedAt, "updated_at": s.UpdatedAt,
		}).ToSQL()
		if err != nil {
			log.Fatalf("Failed to build service insert: %v", err)
		}
		if _, err := pgClient.DB().ExecContext(ctx, query, args...); err != nil {
			log.Printf("Failed to create service %s: %v", s.Name, err)
		}
	}
	log.Printf("Seeded %d services", len(services))

	// 2. Seed Vouchers
	vouchers := []entities.Voucher{
		{Code: "WELCOME10", DiscountPercentage: 10, ExpiryDate: now.AddDate(1, 0, 0), IsActive: true},
		{Code: "SUMMER20", DiscountPercentage: 20, ExpiryDate: now.AddDate(0, 3, 0), IsActive: true},
		{Code: "VIP30", DiscountPercentage: 30, ExpiryDate: now.AddDate(0, 1, 0), IsActive: true},
	}

	for _, v := range vouchers {
		query, args, err := db.Insert("vouchers").Rows(goqu.Record{
			"code": v.Code, "discount_percentage": v.DiscountPercentage,
			"expiry_date": v.ExpiryDate, "is_active": v.IsActive,
		}).ToSQL()
		if err != nil {
			log.Fatalf("Failed to build voucher insert: %v", err)
		}
		if _, err := pgClient.DB().ExecContext(ctx, query, args...); err != nil {
			log.Printf("Failed to create voucher %s: %v", v.Code, err)
		}
	}
	log.Printf("Seeded %d vouchers", len(vouchers))

	log.Println("Seeding complete")
}
