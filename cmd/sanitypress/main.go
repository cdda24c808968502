package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/eringen/sanitypress"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := runServe(); err != nil {
			log.Fatalf("sanitypress: %v", err)
		}
	case "paths":
		if err := runPaths(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("sanitypress %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func loadConfig() (sanitypress.SiteConfig, error) {
	envFile := sanitypress.EnvOr("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return sanitypress.SiteConfig{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return sanitypress.LoadConfig()
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sanitypress.Version = version
	app := sanitypress.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		app.Close()
		return err
	case <-ctx.Done():
	}

	app.Echo.Logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func runPaths() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.LogLevel = "off"
	app := sanitypress.New(cfg)
	if err := app.Setup(); err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	paths, err := app.Paths(ctx)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func printUsage() {
	fmt.Println(`sanitypress - A server-rendered blog for content stored in Sanity

Usage:
  sanitypress [command]

Commands:
  serve         Start the HTTP server (default)
  paths         Print the route of every post page
  version       Print the sanitypress version
  help          Show this help message

Configuration is read from the environment and from .env (override the
file with ENV_FILE). SANITY_PROJECT_ID and SESSION_SECRET are required.`)
}
