// Package main provides a CLI tool that seeds the databases with demo data:
// a demo user, five large-cap funds with allocation facts, one investment
// per fund and a year of daily NAV observations.
package main

import (
	"context"
	"log"
	"time"

	"github.com/fund-tracker/internal/config"
	"github.com/fund-tracker/internal/models"
	"github.com/fund-tracker/internal/service"
	"github.com/fund-tracker/internal/storage"
	"github.com/fund-tracker/internal/types"
)

type fundSeed struct {
	name      string
	isin      string
	house     string
	sectors   []service.AllocationInput
	stocks    []service.AllocationInput
	caps      []service.AllocationInput
	invested  float64
	investDay time.Time
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer clickhouse.Close()

	if err := clickhouse.EnsureNAVSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure NAV schema: %v", err)
	}

	userRepo := storage.NewUserRepository(postgres)
	fundRepo := storage.NewFundRepository(postgres)
	investmentRepo := storage.NewInvestmentRepository(postgres)
	navRepo := storage.NewNAVRepository(clickhouse)

	userService := service.NewUserService(userRepo)
	fundService := service.NewFundService(fundRepo, navRepo)
	investmentService := service.NewInvestmentService(investmentRepo, fundRepo, nil)

	// Idempotence: skip when the demo account is already present
	if exists, err := userRepo.ExistsByEmail(ctx, "demo@example.com"); err != nil {
		log.Fatalf("Failed to check existing data: %v", err)
	} else if exists {
		log.Println("Sample data already exists.")
		return
	}

	demoUser, err := userService.Register(ctx, &service.RegisterInput{
		Email:    "demo@example.com",
		FullName: "Demo User",
		Password: "password123",
	})
	if err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}

	seeds := []fundSeed{
		{
			name: "ICICI Prudential Bluechip Fund", isin: "INF109K016L0", house: "ICICI Prudential",
			sectors: []service.AllocationInput{{Category: "IT", Percentage: 38}, {Category: "Financials", Percentage: 37}, {Category: "Energy/Conglomerate", Percentage: 25}},
			stocks: []service.AllocationInput{
				{Category: "Reliance Industries", Percentage: 25}, {Category: "HDFC Bank", Percentage: 22},
				{Category: "TCS", Percentage: 20}, {Category: "Infosys", Percentage: 18}, {Category: "ICICI Bank", Percentage: 15},
			},
			caps:     []service.AllocationInput{{Category: "Large Cap", Percentage: 98}, {Category: "Mid Cap", Percentage: 2}},
			invested: 1000000, investDay: time.Date(2023, time.January, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "HDFC Top 100 Fund", isin: "INF179K01YV8", house: "HDFC",
			sectors: []service.AllocationInput{{Category: "Financials", Percentage: 80}, {Category: "Energy/Conglomerate", Percentage: 20}},
			stocks: []service.AllocationInput{
				{Category: "HDFC Bank", Percentage: 28}, {Category: "ICICI Bank", Percentage: 24},
				{Category: "Reliance Industries", Percentage: 20}, {Category: "Kotak Mahindra Bank", Percentage: 18}, {Category: "Bajaj Finance", Percentage: 10},
			},
			caps:     []service.AllocationInput{{Category: "Large Cap", Percentage: 85}, {Category: "Mid Cap", Percentage: 13}, {Category: "Small Cap", Percentage: 2}},
			invested: 800000, investDay: time.Date(2022, time.December, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "SBI Bluechip Fund", isin: "INF200K01QX4", house: "SBI",
			sectors: []service.AllocationInput{
				{Category: "Energy/Conglomerate", Percentage: 27}, {Category: "IT", Percentage: 40},
				{Category: "Financials", Percentage: 21}, {Category: "Industrials", Percentage: 12},
			},
			stocks: []service.AllocationInput{
				{Category: "Reliance Industries", Percentage: 27}, {Category: "TCS", Percentage: 23},
				{Category: "HDFC Bank", Percentage: 21}, {Category: "Infosys", Percentage: 17}, {Category: "Larsen & Toubro", Percentage: 12},
			},
			caps:     []service.AllocationInput{{Category: "Large Cap", Percentage: 97}, {Category: "Mid Cap", Percentage: 3}},
			invested: 1200000, investDay: time.Date(2023, time.February, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "Axis Bluechip Fund", isin: "INF846K01DP8", house: "Axis",
			sectors: []service.AllocationInput{{Category: "IT", Percentage: 50}, {Category: "Financials", Percentage: 32}, {Category: "Energy/Conglomerate", Percentage: 18}},
			stocks: []service.AllocationInput{
				{Category: "TCS", Percentage: 26}, {Category: "Infosys", Percentage: 24},
				{Category: "HDFC Bank", Percentage: 22}, {Category: "Reliance Industries", Percentage: 18}, {Category: "State Bank of India", Percentage: 10},
			},
			caps:     []service.AllocationInput{{Category: "Large Cap", Percentage: 98}, {Category: "Mid Cap", Percentage: 2}},
			invested: 950000, investDay: time.Date(2022, time.November, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "Mirae Asset Large Cap Fund", isin: "INF769K01AX2", house: "Mirae Asset",
			sectors: []service.AllocationInput{{Category: "IT", Percentage: 42}, {Category: "Financials", Percentage: 34}, {Category: "Energy/Conglomerate", Percentage: 24}},
			stocks: []service.AllocationInput{
				{Category: "Reliance Industries", Percentage: 24}, {Category: "HDFC Bank", Percentage: 23},
				{Category: "TCS", Percentage: 22}, {Category: "Infosys", Percentage: 20}, {Category: "ICICI Bank", Percentage: 11},
			},
			caps:     []service.AllocationInput{{Category: "Large Cap", Percentage: 96}, {Category: "Mid Cap", Percentage: 4}},
			invested: 1100000, investDay: time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	endDate := types.DateOnly(time.Now())
	startDate := endDate.AddDate(0, 0, -365)

	for i, seed := range seeds {
		fund, err := fundService.Create(ctx, &service.CreateFundInput{
			Name:         seed.name,
			ISIN:         seed.isin,
			FundType:     "Equity",
			FundCategory: "Large Cap",
			FundHouse:    seed.house,
		})
		if err != nil {
			log.Fatalf("Failed to create fund %s: %v", seed.name, err)
		}

		for _, a := range seed.sectors {
			if err := fundService.AddAllocation(ctx, fund.ID, types.AllocationSector, &a); err != nil {
				log.Fatalf("Failed to add sector allocation: %v", err)
			}
		}
		for _, h := range seed.stocks {
			if err := fundService.AddAllocation(ctx, fund.ID, types.AllocationStock, &h); err != nil {
				log.Fatalf("Failed to add stock holding: %v", err)
			}
		}
		for _, c := range seed.caps {
			if err := fundService.AddAllocation(ctx, fund.ID, types.AllocationCap, &c); err != nil {
				log.Fatalf("Failed to add cap allocation: %v", err)
			}
		}

		// A year of daily NAVs, each fund growing at a slightly different rate
		var observations []*models.NAVObservation
		for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
			daysPassed := int(d.Sub(startDate).Hours() / 24)
			growth := 1 + (float64(daysPassed)/365)*(0.1+float64(i)*0.01)
			observations = append(observations, &models.NAVObservation{
				FundID: fund.ID,
				Date:   d,
				NAV:    100 * growth,
			})
		}
		if err := navRepo.InsertBatch(ctx, observations); err != nil {
			log.Fatalf("Failed to insert nav history for %s: %v", seed.name, err)
		}

		if _, err := investmentService.Create(ctx, demoUser.ID, &service.CreateInvestmentInput{
			FundID:          fund.ID,
			InvestmentDate:  seed.investDay,
			AmountInvested:  seed.invested,
			NAVAtInvestment: 100,
		}); err != nil {
			log.Fatalf("Failed to create investment in %s: %v", seed.name, err)
		}

		log.Printf("Seeded fund %s", seed.name)
	}

	log.Println("Database initialized with sample data.")
	log.Println("Demo account: demo@example.com / password123")
}
