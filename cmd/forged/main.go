package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"forgechain/config"
	"forgechain/core"
	"forgechain/observability/logging"
	"forgechain/rpc"
	"forgechain/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	listenFlag := flag.String("listen", "", "Listen address for the JSON-RPC server (overrides config)")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("FORGE_ENV"))
	logger := logging.Setup("forged", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	owner, err := cfg.OwnerAddress()
	if err != nil {
		logger.Error("Invalid owner address", slog.Any("error", err))
		os.Exit(1)
	}
	operator, err := cfg.OperatorAddress()
	if err != nil {
		logger.Error("Invalid operator address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	node, err := core.NewNode(db, core.Options{
		Owner:           owner,
		Operator:        operator,
		TemplateTokenID: cfg.TemplateTokenID,
		EventBuffer:     cfg.EventBuffer,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialise node: %v", err))
	}

	listen := cfg.ListenAddress
	if strings.TrimSpace(*listenFlag) != "" {
		listen = strings.TrimSpace(*listenFlag)
	}

	logger.Info("starting forged",
		slog.String("network", cfg.NetworkName),
		slog.String("dataDir", cfg.DataDir),
		slog.String("listen", listen),
		slog.String("owner", cfg.Owner),
		slog.String("operator", cfg.Operator),
	)

	server := rpc.NewServer(node, logger)
	if err := server.Start(listen); err != nil {
		logger.Error("JSON-RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
