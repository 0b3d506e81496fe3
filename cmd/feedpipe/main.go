package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/urbanflow-transit/feedpipe/api"
	"github.com/urbanflow-transit/feedpipe/config"
	"github.com/urbanflow-transit/feedpipe/fetch"
	"github.com/urbanflow-transit/feedpipe/metrics"
	"github.com/urbanflow-transit/feedpipe/pipeline"
	"github.com/urbanflow-transit/feedpipe/schedule"
)

func main() {
	configPath := flag.String("config", "", "path to config.yml")
	mode := flag.String("mode", "serve", "serve|fetch|sync")
	city := flag.String("city", "", "city name for one-shot modes")
	force := flag.Bool("force", false, "force a sync even when up to date")
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	client := fetch.NewClient(cfg.Timeout())
	store := schedule.NewStore(cfg.Cache.Dir)
	schedules := schedule.NewService(client, store, cfg.StaticSources(), cfg.SyncMinInterval())
	collector := metrics.NewCollector()
	orch := pipeline.NewOrchestrator(cfg, client, schedules, collector)

	switch *mode {
	case "serve":
		srv := api.NewServer(cfg, orch, schedules, collector)
		srv.Start()
		srv.WaitForShutdown()
	case "fetch":
		requireCity(*city)
		positions, err := orch.Positions(context.Background(), *city)
		if err != nil {
			log.Fatalf("fetch error: %v", err)
		}
		printJSON(positions)
	case "sync":
		requireCity(*city)
		res, err := schedules.Sync(context.Background(), *city, *force)
		if err != nil {
			log.Fatalf("sync error: %v", err)
		}
		printJSON(res)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func requireCity(city string) {
	if city == "" {
		log.Fatal("-city is required for this mode")
	}
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encode output: %v", err)
	}
	fmt.Println(string(out))
}
