package application

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mymmrac/telego"
	"golang.org/x/sync/errgroup"

	"tg_exchange/internal/config"
	"tg_exchange/internal/domain/service/allocation"
	"tg_exchange/internal/domain/service/deal"
	"tg_exchange/internal/domain/service/dialog"
	"tg_exchange/internal/domain/service/pricing"
	"tg_exchange/internal/infrastructure/notifier"
	"tg_exchange/internal/infrastructure/persistence"
	"tg_exchange/internal/infrastructure/pricefeed"
	"tg_exchange/internal/infrastructure/processor"
	"tg_exchange/internal/server"
	bottransport "tg_exchange/internal/transport/bot"
	"tg_exchange/internal/transport/bot/handler"
	"tg_exchange/internal/worker"
	"tg_exchange/pkg/application/connectors"
	"tg_exchange/pkg/application/modules"
	"tg_exchange/pkg/contextx"
	"tg_exchange/pkg/httpx"
	"tg_exchange/pkg/logx"
	"tg_exchange/pkg/middlewarex"
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

// Run собирает приложение целиком и блокируется до отмены контекста
// или падения одного из модулей.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}

	// Хранилище.
	files := &connectors.Files{Dir: cfg.Storage.Dir}
	store := persistence.NewStore(files.Path(ctx), cfg.Storage.CacheTTL)

	userRepo := persistence.NewUserRepository(store)
	dealRepo := persistence.NewDealRepository(store)
	settingsRepo := persistence.NewSettingsRepository(store)
	stateRepo := persistence.NewStateRepository(store)
	withdrawalRepo := persistence.NewWithdrawalRepository(store)
	broadcastRepo := persistence.NewBroadcastRepository(store)
	raffleRepo := persistence.NewRaffleRepository(store)

	// Курсы.
	priceClient := pricefeed.NewClient(cfg.PriceFeed.URL, &http.Client{
		Timeout: cfg.PriceFeed.HTTPTimeout,
		Transport: httpx.NewLoggingRoundTripper(
			http.DefaultTransport,
			httpx.WithLogFieldMaxLen(cfg.Server.LogFieldMaxLen),
		),
	})
	priceCache := pricefeed.NewCache(priceClient, cfg.PriceFeed.CacheDuration)

	// Телеграм.
	tgBot, err := telego.NewBot(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("telego.NewBot: %w", err)
	}

	me, err := tgBot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("bot.GetMe: %w", err)
	}
	logger(ctx).Info("bot authorized", "username", me.Username)

	gateway := notifier.NewTelegram(tgBot)

	// Процессинг: имя из настроек перекрывает переменную окружения.
	payments := newProcessor(ctx, cfg.Processor, settingsRepo)

	// Доменные сервисы.
	pricingEngine := pricing.NewEngine(dealRepo, settingsRepo)
	allocator := allocation.NewAllocator(dealRepo, settingsRepo)
	dialogMachine := dialog.NewMachine(stateRepo)

	dealService := deal.NewService(
		dealRepo,
		userRepo,
		settingsRepo,
		priceCache,
		pricingEngine,
		allocator,
		gateway,
	)

	sweeper := worker.NewExpirySweeper(
		dealRepo,
		dealService,
		settingsRepo,
		gateway,
		cfg.Worker.ExpirySweepInterval,
	)

	runners := []modules.Runner{priceCache, sweeper}

	if payments != nil {
		pollRegistry := worker.NewPollRegistry(
			dealRepo,
			payments,
			dealService,
			cfg.Worker.InvoicePollInterval,
			cfg.Worker.InvoicePollAttempts,
		)

		dealService.WithProcessor(payments).WithWatcher(pollRegistry)
		sweeper.WithInvoices(payments)

		runners = append(runners, pollRegistry)
	}

	runners = append(runners, worker.NewBroadcastScheduler(
		broadcastRepo,
		raffleRepo,
		userRepo,
		gateway,
		cfg.Worker.BroadcastCron,
	))

	// Бот.
	commandHandler := handler.New(
		userRepo,
		dealRepo,
		withdrawalRepo,
		settingsRepo,
		priceCache,
		dealService,
		dialogMachine,
		me.Username,
		cfg.Telegram.SupportChatID,
	)

	runners = append(runners, bottransport.New(cfg.Telegram, tgBot, commandHandler, userRepo))

	// Админка.
	adminServer := server.NewServer(server.NewAdminServer(
		dealService,
		dealRepo,
		userRepo,
		withdrawalRepo,
		settingsRepo,
		stateRepo,
	))

	g, ctx := errgroup.WithContext(ctx)

	modules.HTTPServer{ShutdownTimeout: cfg.Server.ShutdownTimeout}.Run(ctx, g, &http.Server{ //nolint:exhaustruct
		Addr:    cfg.Server.ListenAddress,
		Handler: newRouter(adminServer, cfg.Server),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	})

	modules.MetricServer{ListenAddress: cfg.Server.MetricsListenAddress}.Run(ctx, g)

	modules.ProbeServer{
		Name:          cfg.App.Name,
		Version:       cfg.App.Version,
		ListenAddress: cfg.Server.ProbeListenAddress,
	}.Run(ctx, g)

	modules.Worker{}.Run(ctx, g, runners...)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("g.Wait: %w", err)
	}

	return nil
}

func newRouter(adminServer server.Server, cfg config.Server) chi.Router {
	masker := logx.NewSensitiveDataMasker()

	router := chi.NewRouter()
	router.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.Recovery,
		middlewarex.RequestLogging(masker, cfg.LogFieldMaxLen),
		middlewarex.ResponseLogging(masker, cfg.LogFieldMaxLen),
	)

	adminServer.RegisterRoutes(router, cfg.AdminToken)

	return router
}

// newProcessor возвращает nil, если ключи процессинга не настроены:
// покупки тогда идут только через карты и операторов.
func newProcessor(ctx context.Context, cfg config.Processor, settings *persistence.SettingsRepository) processor.Processor {
	httpClient := &http.Client{ //nolint:exhaustruct
		Timeout:   cfg.HTTPTimeout,
		Transport: httpx.NewLoggingRoundTripper(http.DefaultTransport),
	}

	name := cfg.Name
	if stored, err := settings.Get(ctx); err == nil {
		name = processor.ResolveName(stored.ProcessorName, cfg.Name)
	}

	apiKey := cfg.AnyPayAPIKey
	if name == processor.NamePayOk {
		apiKey = cfg.PayOkAPIKey
	}

	if apiKey == "" {
		logger(ctx).Info("payment processor not configured, invoices disabled")
		return nil
	}

	selected := processor.Select(
		name,
		processor.NewAnyPay(cfg.AnyPayBaseURL, cfg.AnyPayAPIKey, httpClient),
		processor.NewPayOk(cfg.PayOkBaseURL, cfg.PayOkAPIKey, httpClient),
	)

	logger(ctx).Info("payment processor selected", "name", selected.Name())

	return selected
}
