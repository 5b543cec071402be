package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Baishnab1708/MyChatBot/pkg/assistant"
	"github.com/Baishnab1708/MyChatBot/pkg/config"
	"github.com/Baishnab1708/MyChatBot/pkg/errorsx"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

func main() {
	_ = godotenv.Load()
	configPath := flag.String("config", "", "path to config YAML")
	query := flag.String("q", "", "query to send")
	timeout := flag.Duration("timeout", 30*time.Second, "round trip limit")
	flag.Parse()
	if strings.TrimSpace(*query) == "" {
		fmt.Println("usage: ask_probe -q \"what are your skills\" [-config=...]")
		os.Exit(1)
	}

	var (
		cfg config.Config
		err error
	)
	if *configPath == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.LoadConfig(*configPath)
	}
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(1)
	}

	asker, err := assistant.DefaultRegistry().BuildBackend(cfg.Vendors.Backend, assistant.Deps{
		Config:    cfg,
		SessionID: uuid.NewString(),
		Fs:        afero.NewOsFs(),
	})
	if err != nil {
		fmt.Println("backend error:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	start := time.Now()
	answer, err := asker.Ask(ctx, *query)
	if err != nil {
		ne := errorsx.AsNetwork(err)
		fmt.Printf("ask error (%s, reason=%s): %s\n", ne.Kind, errorsx.Reason(err), ne.Message)
		os.Exit(1)
	}
	fmt.Printf("backend: %s\nlatency: %s\nanswer: %s\n", asker.Name(), time.Since(start).Round(time.Millisecond), answer)
}
