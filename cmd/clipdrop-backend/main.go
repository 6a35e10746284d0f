package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipdrop/internal/api"
	"clipdrop/internal/config"
	"clipdrop/internal/core"
	"clipdrop/internal/manager"
	"clipdrop/internal/utils"
)

func main() {
	var port int
	var configPath string
	flag.IntVar(&port, "port", 0, "Port to run the API on (overrides config file)")
	flag.StringVar(&configPath, "config", "config.json", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ApplyEnv()
	if port > 0 {
		cfg.Port = port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	utils.SetVerboseLogging(cfg.VerboseLogging)

	if err := cfg.PrepareDownloadDir(); err != nil {
		log.Fatalf("Failed to create download directory: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	updater := core.NewYtDlpUpdater(cfg.YtDlpPath)

	fmt.Printf("Checking yt-dlp availability...\n")
	if installed, err := updater.EnsureInstalled(ctx); err != nil {
		fmt.Printf("Warning: Failed to download yt-dlp: %v\n", err)
	} else if installed {
		fmt.Printf("✓ yt-dlp downloaded to %s\n", cfg.YtDlpPath)
	} else if version, err := updater.GetCurrentVersion(ctx); err == nil {
		fmt.Printf("✓ yt-dlp is available (%s)\n", version)
	}

	fmt.Printf("Checking ffmpeg availability...\n")
	if !core.CheckFfmpegAvailable(ctx, cfg.FfmpegPath) {
		fmt.Printf("Warning: ffmpeg not found at %s or in system PATH\n", cfg.FfmpegPath)
		fmt.Printf("Formats that need merging will fall back to single-file streams.\n")
	} else if versions := core.GetVersionInfo(ctx, cfg.YtDlpPath, cfg.FfmpegPath); versions.FfmpegVersion != "" {
		fmt.Printf("✓ ffmpeg is available (%s)\n", versions.FfmpegVersion)
	} else {
		fmt.Printf("✓ ffmpeg is available\n")
	}

	downloader := core.NewDownloader(cfg.YtDlpPath, cfg.FfmpegPath)
	jobs := manager.NewJobManager(downloader, cfg.MaxConcurrentDownloads, cfg.DownloadPath, cfg)

	handler := api.NewHandler(cfg, jobs, downloader, updater)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Printf("\n❌ Failed to start server on port %d: %v\n", cfg.Port, err)
		fmt.Printf("\nTo change the port, edit config.json, use -port, or set %s.\n", config.EnvPort)
		jobs.Shutdown()
		os.Exit(1)
	}

	fmt.Printf("Starting clipdrop backend...\n")
	fmt.Printf("Port: %d\n", cfg.Port)
	fmt.Printf("Download path: %s\n", cfg.DownloadPath)
	fmt.Printf("Max concurrent downloads: %d\n", cfg.MaxConcurrentDownloads)
	fmt.Printf("✓ Listening on http://localhost%s\n", addr)
	fmt.Printf("Press Ctrl+C to stop the server\n")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Printf("\nShutting down gracefully...\n")
	case err := <-serverErr:
		fmt.Printf("\n❌ Server error: %v\n", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop the manager first so /download requests waiting on jobs return.
	fmt.Printf("Stopping job manager...\n")
	jobs.Shutdown()

	fmt.Printf("Stopping HTTP server...\n")
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Error during server shutdown: %v\n", err)
	}

	fmt.Printf("✓ Shutdown complete\n")
}
