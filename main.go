package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"landseek/config"
	"landseek/crawler"
	"landseek/httputil"
	"landseek/keywords"
	"landseek/logging"
	"landseek/scheduler"
	"landseek/services"
	"landseek/storage"
	"landseek/workers"
)

var (
	queryFlag     = flag.String("query", "", "Run one search and exit, e.g. \"강남역 10억 이하 아파트 매매\"")
	userFlag      = flag.String("user", "", "User id for the one-shot search")
	recommendFlag = flag.Bool("recommend", false, "Print the recommendation board and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting landseek...")

	ctx := context.Background()

	clients := httputil.NewClients(&cfg.Proxy)

	sqliteStore, err := storage.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteStore.Close()
	log.Printf("SQLite database: %s", cfg.SQLitePath)

	var redisStore *storage.RedisStore
	if cfg.Redis.Addr != "" {
		redisStore, err = storage.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		log.Printf("Connected to Redis: %s", cfg.Redis.Addr)
	} else {
		log.Println("No Redis configured, caching and recommendations disabled")
	}

	var pgStore *storage.PostgresStore
	if cfg.DatabaseURL != "" {
		pgStore, err = storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.DatabaseURL))
	} else {
		log.Println("No Postgres configured, listings will not be persisted")
	}

	naverCrawler, err := crawler.New(&cfg.Crawler)
	if err != nil {
		log.Fatalf("Failed to build crawler: %v", err)
	}

	chatClient := keywords.NewChatClient(cfg.OpenAI, clients.API)
	extractor := keywords.NewChatExtractor(chatClient)

	searchService := services.NewSearchService(extractor, naverCrawler, redisStore, pgStore, sqliteStore)
	recommendService := services.NewRecommendService(redisStore)

	// One-shot modes
	if *recommendFlag {
		listings, err := recommendService.Recommend(ctx, *userFlag, 10)
		if err != nil {
			log.Fatalf("Recommendation lookup failed: %v", err)
		}
		out, _ := json.MarshalIndent(listings, "", "  ")
		os.Stdout.Write(append(out, '\n'))
		return
	}

	if *queryFlag != "" {
		result, err := searchService.Search(ctx, *userFlag, *queryFlag)
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}

		log.Printf("Found %d listings (cache hit: %v)", len(result.Listings), result.CacheHit)
		out, _ := json.MarshalIndent(result, "", "  ")
		os.Stdout.Write(append(out, '\n'))
		return
	}

	// Daemon mode
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg, searchService, sqliteStore)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	if pgStore != nil {
		var uploader workers.Uploader
		if cfg.S3.Bucket != "" {
			s3Uploader, err := storage.NewS3Uploader(ctx, cfg.S3)
			if err != nil {
				log.Fatalf("Failed to build S3 uploader: %v", err)
			}
			uploader = s3Uploader
			log.Printf("S3 uploads enabled: %s", cfg.S3.Bucket)
		} else {
			uploader = workers.NewNoOpUploader()
			log.Println("No S3 bucket configured, photos are linked, not mirrored")
		}

		mediaWorker := workers.NewMediaWorker(uploader)

		enrichmentWorker := workers.NewEnrichmentWorker(pgStore, mediaWorker, cfg.Crawler.UserAgent)
		go enrichmentWorker.Run(ctx, 10, 5*time.Minute)
		log.Println("Enrichment worker started")

		healthcheckWorker := workers.NewHealthcheckWorker(pgStore, clients.Scraping, cfg.Crawler.UserAgent)
		healthcheckWorker.SetLogger(workers.StoreLogger(sqliteStore))
		go healthcheckWorker.Run(ctx, 24*time.Hour, 20, 30*time.Minute)
		log.Println("Healthcheck worker started")

		sched.SetWorkers(healthcheckWorker)
	}

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}

// maskConnectionString masks the password in a connection string for logging.
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
