// Command main runs one crawl of the Everytime board and exits.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"campusfind/internal/config"
	"campusfind/internal/crawler"
	"campusfind/internal/database"
	"campusfind/internal/repository"
)

func main() {
	boardURL := flag.String("board", "", "Board listing URL (overrides EVERYTIME_BOARD_URL)")
	maxPages := flag.Int("pages", 0, "Maximum pages to visit (overrides EVERYTIME_MAX_PAGES)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall crawl deadline")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *boardURL != "" {
		cfg.EverytimeBoardURL = *boardURL
	}
	if *maxPages > 0 {
		cfg.EverytimeMaxPages = *maxPages
	}
	if cfg.EverytimeBoardURL == "" {
		log.Fatal("No board URL configured; set EVERYTIME_BOARD_URL or pass -board")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	c := crawler.New(repository.NewEverytimeRepository(db), cfg.EverytimeBoardURL, cfg.EverytimeMaxPages)

	result, err := c.Run(ctx)
	if err != nil {
		log.Fatalf("Crawl failed: %v", err)
	}
	log.Printf("Crawl complete: %d pages, %d posts stored, %d skipped",
		result.PagesVisited, result.PostsStored, result.Skipped)
}
