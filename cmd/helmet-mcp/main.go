package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/helmet-detect-mcp/internal/config"
	"github.com/ironsheep/helmet-detect-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("helmet-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	// stdout carries the MCP protocol and analyze output; logs go to stderr.
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      cfg.Log.SlogLevel(),
		TimeFormat: "15:04:05",
		NoColor:    !cfg.Log.Colored(),
	}))

	if len(os.Args) > 1 && os.Args[1] == "analyze" {
		os.Exit(runAnalyze(cfg, logger, os.Args[2:]))
	}

	if err := serve(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("helmet-mcp - helmet detection workflow over MCP")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  helmet-mcp                              Serve MCP over stdin/stdout")
	fmt.Println("  helmet-mcp analyze [options] <image>    Analyze one image and exit")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Analyze options:")
	fmt.Println("  -out <file>      Write the annotated preview (format from extension)")
	fmt.Println("  -json            Print the result as JSON")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("  %-30s %s\n", config.DefaultConfigFile, "Read from the working directory when present")
	fmt.Printf("  %-30s %s\n", config.EnvConfigPath+"=<path>", "Config file location")
	fmt.Printf("  %-30s %s\n", config.EnvEnv+"=<env>", "Merge helmet-mcp.<env>.toml over the config file")
	fmt.Printf("  %-30s %s\n", config.EnvDetectionURL+"=<url>", "Detection service endpoint")
	fmt.Printf("  %-30s %s\n", config.EnvLogLevel+"=debug", "Enable debug logging")
}

// serve runs the MCP server until stdin closes or a signal arrives.
func serve(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("helmet-mcp starting",
		"version", Version,
		"commit", GitCommit,
		"detection_url", cfg.Detection.URL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	srv := server.New(cfg, Version, logger)

	g.Go(func() error {
		defer cancel()
		return srv.Run(gctx)
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	err := g.Wait()
	logger.Info("helmet-mcp stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
