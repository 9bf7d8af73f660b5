// Command seed populates the development database with sample data.
package main

import (
	"flag"
	"log"

	"kfarm/internal/config"
	"kfarm/internal/database"
	"kfarm/internal/seed"
)

func main() {
	opts := seed.DefaultOptions()
	flag.IntVar(&opts.NumUsers, "users", opts.NumUsers, "number of users to create")
	flag.IntVar(&opts.NumProducts, "products", opts.NumProducts, "number of products to create")
	flag.IntVar(&opts.NumInputs, "inputs", opts.NumInputs, "number of farm inputs to create")
	flag.IntVar(&opts.NumPosts, "posts", opts.NumPosts, "number of forum posts to create")
	flag.IntVar(&opts.NumGuides, "guides", opts.NumGuides, "number of farming guides to create")
	flag.BoolVar(&opts.ShouldClean, "clean", false, "delete existing data first")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Env == "production" || cfg.Env == "prod" {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Run(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
