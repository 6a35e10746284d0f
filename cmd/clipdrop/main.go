package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"clipdrop/internal/client"
	"clipdrop/internal/config"
	"clipdrop/internal/opener"
	"clipdrop/internal/tui"
	"clipdrop/internal/utils"
	"clipdrop/internal/web"
)

func main() {
	var configPath string
	var backendURL string
	var serve bool
	var webPort int
	flag.StringVar(&configPath, "config", "config.json", "Path to configuration file")
	flag.StringVar(&backendURL, "backend", "", "Download request endpoint (overrides config file)")
	flag.BoolVar(&serve, "serve", false, "Serve the download form over HTTP instead of the terminal UI")
	flag.IntVar(&webPort, "port", 0, "Port for -serve (overrides config file)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ApplyEnv()
	if backendURL != "" {
		cfg.BackendURL = backendURL
	}
	if webPort > 0 {
		cfg.WebPort = webPort
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	utils.SetVerboseLogging(cfg.VerboseLogging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender := client.New(cfg.BackendURL)

	if serve {
		if err := serveForm(ctx, cfg, sender); err != nil {
			log.Fatalf("Server error: %v", err)
		}
		return
	}

	if err := runTerminal(ctx, cfg, sender); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTerminal owns the screen until the user quits, so logging goes to the
// configured log file or nowhere.
func runTerminal(ctx context.Context, cfg *config.Config, sender *client.Client) error {
	logFile, err := utils.OpenLogFile(cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	model := tui.New(ctx, sender, opener.NewSystem(), cfg.Resolutions, cfg.DefaultResolution)
	program := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func serveForm(ctx context.Context, cfg *config.Config, sender *client.Client) error {
	handler := web.NewHandler(cfg, sender)
	router := web.SetupRoutes(handler, web.Assets)

	addr := fmt.Sprintf(":%d", cfg.WebPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	fmt.Printf("✓ Download form available at http://localhost%s\n", addr)
	fmt.Printf("Requests go to %s\n", cfg.BackendURL)
	fmt.Printf("Press Ctrl+C to stop the server\n")

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	fmt.Printf("\nShutting down...\n")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
