package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Automatic365/substack-downloader/app/archive"
	"github.com/Automatic365/substack-downloader/app/cfg"
	"github.com/Automatic365/substack-downloader/app/compile"
	"github.com/Automatic365/substack-downloader/app/sync"
)

func main() {
	os.Exit(run())
}

func run() int {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return 0
	}

	setupLogging(appCfg.Debug)
	slog.Info("Starting Substack downloader", "version", appCfg.Version, "url", appCfg.URL)

	client, err := archive.NewClient(appCfg.URL, appCfg.Cookie, appCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	defer client.Close()

	ctx := context.Background()

	if appCfg.ClearCache {
		cache := client.Cache()
		if cache == nil {
			fmt.Println("Cache not enabled")
			return 0
		}
		dropped, err := cache.Clear()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return 1
		}
		fmt.Printf("Cleared %d cached entries\n", dropped)
		return 0
	}

	if appCfg.VerifyAuth {
		if client.VerifySession(ctx) {
			fmt.Println("Session cookie is valid")
			return 0
		}
		fmt.Println("Session cookie is missing or invalid")
		return 1
	}

	compiler, err := compile.NewCompiler(appCfg.URL, appCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	result := sync.NewOrchestrator(client, compiler, appCfg).Run(ctx)

	switch result.Status {
	case sync.StatusOK:
		fmt.Printf("Done! Saved %d post(s) to %s\n", result.PostCount, result.OutputPath)
		return 0
	case sync.StatusNoPosts, sync.StatusNoNewPosts, sync.StatusMissingEPUB:
		fmt.Println(result.Message)
		return 1
	default:
		fmt.Fprintln(os.Stderr, "Error:", result.Message)
		return 1
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
