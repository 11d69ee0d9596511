// Command simulate runs one drone-delivery negotiation simulation to
// completion: it loads the CSV fixtures under -d/--data, starts the fleet,
// optionally pushes live snapshots to a visualizer and/or serves them over
// gRPC (-tags grpcserver), and exits once every drone reaches Dead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Ptozin/droneswarm/internal/config"
	"github.com/Ptozin/droneswarm/internal/db"
	"github.com/Ptozin/droneswarm/internal/lifecycle"
	"github.com/Ptozin/droneswarm/internal/visualize"
	"github.com/Ptozin/droneswarm/repository"
)

func main() {
	dataset := flag.String("d", "small", "dataset folder under data/ (original or small)")
	flag.StringVar(dataset, "data", "small", "dataset folder under data/ (original or small)")
	noViz := flag.Bool("no-viz", false, "disable the websocket visualization bridge")
	flag.Parse()

	cfg, err := config.LoadWithDefaults()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg.Simulation.DataDir = filepath.Join("data", *dataset)
	log.Printf("starting simulation: %v", cfg)

	d, err := db.Open(":memory:")
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			log.Printf("close db: %v", err)
		}
	}()
	repo := repository.NewFleetRepository(d)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*noViz {
		viz := visualize.NewServer(cfg.Viz.Address, repo)
		go func() {
			if err := viz.Serve(ctx); err != nil {
				log.Printf("visualization server stopped: %v", err)
			}
		}()
		log.Printf("visualization bridge listening on %s", cfg.Viz.Address)
	}

	grpcShutdown, err := startGRPC(cfg, repo)
	if err != nil {
		log.Fatalf("start grpc: %v", err)
	}

	if err := lifecycle.Run(ctx, cfg, repo); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if shutErr := grpcShutdown(shutdownCtx); shutErr != nil {
			log.Printf("grpc shutdown error: %v", shutErr)
		}
		cancel()
		log.Fatalf("simulation failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := grpcShutdown(shutdownCtx); err != nil {
		log.Printf("grpc shutdown error: %v", err)
	}

	fmt.Println("simulation complete: every drone reached Dead")
}
