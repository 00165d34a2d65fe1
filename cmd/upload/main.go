package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"antsbot.ai/internal/config"
	"antsbot.ai/internal/submit"
)

const defaultConfigPath = "./configs/harness.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to harness.yaml (built-in defaults when the default path is absent)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: AI_USERNAME=... AI_PASSWORD=... %s [flags] <bot.zip>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	user, pass, artifact, err := parseArgs(os.Getenv, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	path := *configPath
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	logger := log.New(os.Stdout, "[upload] ", log.LstdFlags|log.Lmicroseconds)
	client, err := submit.NewClient(cfg.Upload.Endpoints(), cfg.Upload.Timeout, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "upload client:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := client.Upload(ctx, user, pass, artifact); err != nil {
		fmt.Fprintln(os.Stderr, "upload:", err)
		stop()
		os.Exit(1)
	}
	logger.Printf("submitted %s", artifact)
}

// parseArgs reads the credentials from the environment and requires exactly
// one artifact path.
func parseArgs(getenv func(string) string, args []string) (user, pass, artifact string, err error) {
	user = strings.TrimSpace(getenv("AI_USERNAME"))
	pass = getenv("AI_PASSWORD")
	var missing []string
	if user == "" {
		missing = append(missing, "AI_USERNAME")
	}
	if pass == "" {
		missing = append(missing, "AI_PASSWORD")
	}
	if len(missing) > 0 {
		return "", "", "", fmt.Errorf("missing env %s", strings.Join(missing, ", "))
	}
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", "", "", fmt.Errorf("want exactly one artifact path, got %d arguments", len(args))
	}
	return user, pass, args[0], nil
}
