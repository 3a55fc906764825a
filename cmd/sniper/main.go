// Command sniper watches pump.fun for token creations, evaluates each
// candidate against the configured buy rules and manages the resulting
// positions until an exit rule closes them.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"solana-sniper/internal/config"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/enrich"
	"solana-sniper/internal/evaluate"
	"solana-sniper/internal/executor"
	"solana-sniper/internal/feed"
	"solana-sniper/internal/ingestion"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/pipeline"
	"solana-sniper/internal/position"
	"solana-sniper/internal/price"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/storage"
	chstore "solana-sniper/internal/storage/clickhouse"
	"solana-sniper/internal/storage/memory"
	"solana-sniper/internal/storage/migrations"
	pgstore "solana-sniper/internal/storage/postgres"
	"solana-sniper/internal/strategy"
)

// dryRunPubkey stands in for a wallet when no key is configured.
const dryRunPubkey = "11111111111111111111111111111111"

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}

	setupLogging(cfg.General)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("sniper exited with error")
	}
	log.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config) error {
	// RPC endpoint pool
	clients := make([]solana.RPCClient, 0, len(cfg.Endpoints.RPC))
	for _, endpoint := range cfg.Endpoints.RPC {
		clients = append(clients, solana.NewHTTPClient(endpoint))
	}
	pool, err := solana.NewEndpointPool(clients)
	if err != nil {
		return err
	}

	// Storage
	journal, history, closeStores, err := buildStores(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStores()

	// Signer
	signer, err := buildSigner(cfg)
	if err != nil {
		return err
	}

	// Trade executor
	exec, err := executor.New(pool, signer,
		executor.WithSlippageBps(cfg.Trade.SlippageBps),
		executor.WithConfirmTimeout(time.Duration(cfg.Trade.ConfirmTimeoutSeconds)*time.Second),
		executor.WithJournal(journal),
		executor.WithDryRun(cfg.General.DryRun),
	)
	if err != nil {
		return err
	}

	// Detection stages
	resolver, err := ingestion.NewCandidateResolver(pool,
		ingestion.WithResolveAttempts(cfg.Detection.ResolveAttempts),
		ingestion.WithResolveBackoff(time.Duration(cfg.Detection.ResolveBackoffMs)*time.Millisecond),
	)
	if err != nil {
		return err
	}
	enricher, err := enrich.NewMetadataEnricher(pool,
		enrich.WithOffchainTimeout(time.Duration(cfg.Detection.OffchainTimeoutMs)*time.Millisecond),
	)
	if err != nil {
		return err
	}
	evaluator, err := evaluate.NewEvaluator(evaluate.Config{
		BuyAmountSOL:            cfg.Trade.BuyAmountSOL,
		MaxSOLPerToken:          cfg.Trade.MaxSOLPerToken,
		MinTokensOut:            cfg.Trade.MinTokensOut,
		MaxDetectionAge:         time.Duration(cfg.Filters.MaxDetectionAgeMs) * time.Millisecond,
		MinLiquiditySOL:         cfg.Filters.MinLiquiditySOL,
		MaxLiquiditySOL:         cfg.Filters.MaxLiquiditySOL,
		MinMarketCapSOL:         cfg.Filters.MinMarketCapSOL,
		MaxMarketCapSOL:         cfg.Filters.MaxMarketCapSOL,
		MinHolders:              cfg.Filters.MinHolders,
		MaxCreatorAllocationPct: cfg.Filters.MaxCreatorAllocationPct,
		MinInitialBuySOL:        cfg.Filters.MinInitialBuySOL,
		BypassFilters:           cfg.Filters.Bypass,
		OnMissingData:           cfg.Filters.OnMissingData,
	})
	if err != nil {
		return err
	}

	// Position management
	book := position.NewBook(cfg.Trade.MaxHoldings)
	prices, err := price.NewCache(pool,
		price.WithTTL(time.Duration(cfg.Exits.PriceTTLMs)*time.Millisecond),
	)
	if err != nil {
		return err
	}
	rules, err := strategy.FromConfig(strategy.Config{
		TakeProfitPct: cfg.Exits.TakeProfitPct,
		StopLossPct:   cfg.Exits.StopLossPct,
		MaxHold:       time.Duration(cfg.Exits.MaxHoldSeconds) * time.Second,
	})
	if err != nil {
		return err
	}
	monitor, err := position.NewMonitor(book, prices, exec, rules,
		position.WithInterval(time.Duration(cfg.Exits.CheckIntervalSeconds)*time.Second),
		position.WithPriceHistory(history),
	)
	if err != nil {
		return err
	}

	// Status feed and metrics
	counters := &observability.DetectionCounters{}
	statusFeed := feed.New(counters, book,
		feed.WithRecentCapacity(cfg.Server.RecentDetections),
		feed.WithTradeStore(journal),
	)
	startHTTPServers(ctx, cfg.Server, statusFeed)

	pipe, err := pipeline.New(
		ingestion.NewEarlyFilter(),
		ingestion.NewDeduplicator(cfg.Detection.DedupCapacity),
		resolver,
		enricher,
		evaluator,
		exec,
		book,
		counters,
		pipeline.WithDecisionSink(statusFeed),
	)
	if err != nil {
		return err
	}

	// WebSocket ingestion
	wsConfig := solana.DefaultWSConfig()
	wsConfig.OnDisconnect = observability.DecLiveSubscriptions
	wsConfig.OnReconnect = observability.IncLiveSubscriptions

	wsClients := make([]solana.WSClient, 0, len(cfg.Endpoints.WS))
	for _, endpoint := range cfg.Endpoints.WS {
		client, err := solana.NewWSClient(ctx, endpoint, &wsConfig)
		if err != nil {
			log.Error().Err(err).Str("endpoint", endpoint).Msg("websocket connect failed")
			continue
		}
		wsClients = append(wsClients, client)
	}
	ingestor, err := ingestion.NewEventIngestor(wsClients, solana.PumpProgramID)
	if err != nil {
		return err
	}
	defer ingestor.Close()

	events, err := ingestor.Start(ctx)
	if err != nil {
		return err
	}

	go monitor.Run(ctx)

	log.Info().
		Int("rpc_endpoints", len(clients)).
		Int("ws_endpoints", len(wsClients)).
		Bool("dry_run", cfg.General.DryRun).
		Float64("buy_amount_sol", cfg.Trade.BuyAmountSOL).
		Msg("sniper started")

	// Blocks until the ingestor channel closes or the context ends.
	pipe.Run(ctx, events)

	log.Info().Int("open_holdings", book.Len()).Msg("pipeline stopped")
	return nil
}

// buildStores wires the trade journal and price history sink for the
// configured backend. The returned close function is safe to call once.
func buildStores(ctx context.Context, cfg config.StorageConfig) (storage.TradeStore, position.PriceHistorySink, func(), error) {
	if cfg.Backend == "memory" {
		return memory.NewTradeStore(), &historySink{store: memory.NewPriceHistoryStore()}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	closeStores := func() {
		pool.Close()
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("close clickhouse connection")
		}
	}
	return pgstore.NewTradeStore(pool), &historySink{store: chstore.NewPriceHistoryStore(conn)}, closeStores, nil
}

func buildSigner(cfg *config.Config) (executor.Signer, error) {
	if cfg.Wallet.PrivateKey != "" {
		return executor.NewKeypairSigner(cfg.Wallet.PrivateKey)
	}
	// Validate already guaranteed dry run here.
	return executor.NopSigner{Pubkey: dryRunPubkey}, nil
}

// historySink adapts a PriceHistoryStore to the monitor's per-point sink.
type historySink struct {
	store storage.PriceHistoryStore
}

func (s *historySink) Append(ctx context.Context, point domain.PricePoint) error {
	return s.store.InsertBulk(ctx, []*domain.PricePoint{&point})
}

func startHTTPServers(ctx context.Context, cfg config.ServerConfig, statusFeed *feed.Feed) {
	feedMux := http.NewServeMux()
	statusFeed.Register(feedMux)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", observability.Handler())

	servers := []*http.Server{
		{Addr: cfg.FeedAddr, Handler: feedMux},
		{Addr: cfg.MetricsAddr, Handler: metricsMux},
	}
	for _, srv := range servers {
		go func(srv *http.Server) {
			log.Info().Str("addr", srv.Addr).Msg("http server listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Str("addr", srv.Addr).Msg("http server error")
			}
		}(srv)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			_ = srv.Shutdown(shutdownCtx)
		}
	}()
}

func setupLogging(general config.GeneralConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMicro
	level, err := zerolog.ParseLevel(general.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if general.LogFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Str("service", "sniper").Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).
			With().Timestamp().Str("service", "sniper").Logger()
	}
}
