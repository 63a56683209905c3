package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"storefront-orders/config"
	"storefront-orders/internal/catalog"
	"storefront-orders/internal/store"
	"storefront-orders/internal/util"

	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "products.csv", "CSV export to import")
	migrate := flag.Bool("migrate", true, "apply database migrations first")
	flag.Parse()

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()
	logger := util.Component("importer")

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("Failed to open catalog file", zap.String("file", *file), zap.Error(err))
	}
	defer f.Close()

	products, err := catalog.ParseCSV(f)
	if err != nil {
		logger.Fatal("Failed to parse catalog", zap.String("file", *file), zap.Error(err))
	}
	logger.Info("Parsed products", zap.Int("count", len(products)))

	if *migrate {
		if err := store.Migrate(cfg.Database.MigrationsPath, cfg.Database.URL); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for i := range products {
		if err := db.UpsertProduct(ctx, &products[i]); err != nil {
			logger.Fatal("Failed to upsert product",
				zap.String("product_id", products[i].ID),
				zap.String("name", products[i].Name),
				zap.Error(err))
		}
	}

	logger.Info("Catalog imported", zap.Int("count", len(products)))
}
