// Command main runs the database seeder for CampusFind.
package main

import (
	"flag"
	"log"

	"campusfind/internal/config"
	"campusfind/internal/database"
	"campusfind/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 30, "Number of users to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumPosts:    *numPosts,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All done. Every seeded account uses the password %q", seed.SeedPassword)
}
