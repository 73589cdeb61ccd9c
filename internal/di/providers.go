package di

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"IntraScan/internal/detect"
	"IntraScan/internal/domain/models"
	"IntraScan/internal/domain/repository"
	"IntraScan/internal/guard"
	"IntraScan/internal/handler/api"
	"IntraScan/internal/market"
	mid "IntraScan/internal/middleware"
	"IntraScan/internal/rankings"
	"IntraScan/internal/scheduler"
	"IntraScan/internal/service/broker"
	"IntraScan/internal/service/sink"
	"IntraScan/internal/signal"
	"IntraScan/internal/usecase"
	"IntraScan/pkg/cache"
	"IntraScan/pkg/config"
	xhttp "IntraScan/pkg/http"
	pkgkafka "IntraScan/pkg/kafka"
	applogger "IntraScan/pkg/logger"
	"IntraScan/pkg/metrics"
	"IntraScan/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if lc.Level == "" {
		lc.Level = "info"
	}
	if lc.Format == "" {
		lc.Format = "console"
	}
	if lc.Output == "" {
		lc.Output = "stdout"
	}
	return applogger.New(lc)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideMarketStore creates the in-memory market state store.
func ProvideMarketStore(cfg *config.Config) *market.Store {
	return market.NewStore(market.Config{
		BenchmarkToken: cfg.Market.Benchmark,
		RecencyWindow:  cfg.Market.RecencyWindow,
		SessionOpen:    cfg.Scanner.SessionOpen,
	})
}

// ProvideBrokerStream creates the WebSocket quote stream.
func ProvideBrokerStream(cfg *config.Config, log *applogger.Logger) repository.MarketStream {
	return broker.NewClient(
		cfg.Broker.WebSocketURL,
		cfg.Broker.APIKey,
		cfg.Broker.ReconnectDelay,
		cfg.Broker.PingInterval,
		log,
	)
}

// ProvideCandleSource creates the rate-limited candle gateway client.
func ProvideCandleSource(cfg *config.Config) repository.CandleSource {
	return broker.NewCandleClient(
		cfg.Broker.CandleURL,
		cfg.Broker.APIKey,
		cfg.Broker.CandleTimeout,
		cfg.Broker.CandleRPS,
		cfg.Broker.CandleBurst,
	)
}

// ProvideDetectEngine creates the detection engine.
func ProvideDetectEngine(cfg *config.Config) *detect.Engine {
	dc := detect.DefaultConfig()
	if cfg.Detect.EarlyWindow > 0 {
		dc.EarlyWindow = cfg.Detect.EarlyWindow
	}
	if cfg.Detect.EarlyMovePct > 0 {
		dc.EarlyMovePct = cfg.Detect.EarlyMovePct
	}
	if cfg.Detect.AccelBars > 0 {
		dc.AccelBars = cfg.Detect.AccelBars
	}
	if cfg.Detect.AccelRatio > 0 {
		dc.AccelRatio = cfg.Detect.AccelRatio
	}
	if cfg.Detect.VolumeRatio > 0 {
		dc.VolumeRatio = cfg.Detect.VolumeRatio
	}
	if cfg.Detect.RecentVolRatio > 0 {
		dc.RecentVolRatio = cfg.Detect.RecentVolRatio
	}
	if cfg.Detect.RunnerMinBars > 0 {
		dc.RunnerMinBars = cfg.Detect.RunnerMinBars
	}
	if cfg.Detect.RunnerMinMove > 0 {
		dc.RunnerMinMovePct = cfg.Detect.RunnerMinMove
	}
	if cfg.Detect.OIChangePct > 0 {
		dc.OIChangePct = cfg.Detect.OIChangePct
	}
	if cfg.Detect.OptionRangeMult > 0 {
		dc.OptionRangeRatio = cfg.Detect.OptionRangeMult
	}
	if cfg.Detect.MinTurnover > 0 {
		dc.MinTurnover = cfg.Detect.MinTurnover
	}
	return detect.NewEngine(dc)
}

// ProvideSignalConfig maps configuration onto orchestrator thresholds.
func ProvideSignalConfig(cfg *config.Config) signal.Config {
	sc := signal.DefaultConfig()
	if cfg.Signals.LookbackBars > 0 {
		sc.LookbackBars = cfg.Signals.LookbackBars
	}
	if cfg.Signals.VolumeRatio > 0 {
		sc.VolumeRatio = cfg.Signals.VolumeRatio
	}
	if cfg.Signals.RSILongMin > 0 {
		sc.RSILongMin = cfg.Signals.RSILongMin
	}
	if cfg.Signals.RSILongMax > 0 {
		sc.RSILongMax = cfg.Signals.RSILongMax
	}
	if cfg.Signals.RSIShortMin > 0 {
		sc.RSIShortMin = cfg.Signals.RSIShortMin
	}
	if cfg.Signals.RSIShortMax > 0 {
		sc.RSIShortMax = cfg.Signals.RSIShortMax
	}
	if cfg.Signals.ATRPctCeiling > 0 {
		sc.ATRPctCeiling = cfg.Signals.ATRPctCeiling
	}
	if cfg.Signals.SwingBars > 0 {
		sc.SwingBars = cfg.Signals.SwingBars
	}
	if cfg.Signals.StopATRMult > 0 {
		sc.StopATRMult = cfg.Signals.StopATRMult
	}
	if cfg.Signals.MinRiskReward > 0 {
		sc.MinRiskReward = cfg.Signals.MinRiskReward
	}
	if cfg.Signals.StrongVolumeRatio > 0 {
		sc.StrongVolumeRatio = cfg.Signals.StrongVolumeRatio
	}
	if cfg.Signals.StrongMinRR > 0 {
		sc.StrongMinRR = cfg.Signals.StrongMinRR
	}
	return sc
}

// ProvideOrchestrator creates the signal orchestrator.
func ProvideOrchestrator(sc signal.Config) *signal.Orchestrator {
	return signal.NewOrchestrator(sc)
}

// ProvideAdaptive creates the closed-loop adaptive filter.
func ProvideAdaptive(cfg *config.Config, sc signal.Config) *guard.Adaptive {
	ac := guard.DefaultAdaptiveConfig()
	if cfg.Guards.Adaptive.TriggerRate > 0 {
		ac.TriggerRate = cfg.Guards.Adaptive.TriggerRate
	}
	if cfg.Guards.Adaptive.QuietCycles > 0 {
		ac.QuietCycles = cfg.Guards.Adaptive.QuietCycles
	}
	if cfg.Guards.Adaptive.RevertRate > 0 {
		ac.RevertRate = cfg.Guards.Adaptive.RevertRate
	}
	if cfg.Guards.Adaptive.VolumeTighten > 0 {
		ac.VolumeTighten = cfg.Guards.Adaptive.VolumeTighten
	}
	if cfg.Guards.Adaptive.RSITighten > 0 {
		ac.RSITighten = cfg.Guards.Adaptive.RSITighten
	}
	if cfg.Guards.Adaptive.ATRTighten > 0 {
		ac.ATRTighten = cfg.Guards.Adaptive.ATRTighten
	}
	return guard.NewAdaptive(ac, sc)
}

// ProvideCooldown creates the cooldown guard.
func ProvideCooldown(cfg *config.Config) *guard.Cooldown {
	cc := guard.DefaultCooldownConfig()
	if cfg.Guards.Cooldown.MinInterval > 0 {
		cc.MinInterval = cfg.Guards.Cooldown.MinInterval
	}
	if cfg.Guards.Cooldown.HistorySize > 0 {
		cc.HistorySize = cfg.Guards.Cooldown.HistorySize
	}
	return guard.NewCooldown(cc)
}

// ProvideExecutionGuard creates the execution-reality guard.
func ProvideExecutionGuard(cfg *config.Config) *guard.Execution {
	ec := guard.DefaultExecutionConfig()
	if cfg.Guards.Execution.BaselineSize > 0 {
		ec.BaselineSize = cfg.Guards.Execution.BaselineSize
	}
	if cfg.Guards.Execution.SpreadMult > 0 {
		ec.SpreadMult = cfg.Guards.Execution.SpreadMult
	}
	if cfg.Guards.Execution.DepthCollapse > 0 {
		ec.DepthCollapse = cfg.Guards.Execution.DepthCollapse
	}
	if cfg.Guards.Execution.RangeSpikeMult > 0 {
		ec.RangeSpikeMult = cfg.Guards.Execution.RangeSpikeMult
	}
	if cfg.Guards.Execution.MinObservations > 0 {
		ec.MinObservations = cfg.Guards.Execution.MinObservations
	}
	return guard.NewExecution(ec)
}

// ProvideGuardChain assembles the ordered validation chain.
func ProvideGuardChain(
	cfg *config.Config,
	m repository.Metrics,
	adaptive *guard.Adaptive,
	cooldown *guard.Cooldown,
	exec *guard.Execution,
) *guard.Chain {
	scfg := guard.DefaultSafetyConfig()
	if cfg.Guards.Safety.RSIExtremeHigh > 0 {
		scfg.RSIExtremeHigh = cfg.Guards.Safety.RSIExtremeHigh
	}
	if cfg.Guards.Safety.RSIExtremeLow > 0 {
		scfg.RSIExtremeLow = cfg.Guards.Safety.RSIExtremeLow
	}
	if cfg.Guards.Safety.MinVolRatio > 0 {
		scfg.MinVolRatio = cfg.Guards.Safety.MinVolRatio
	}
	if cfg.Guards.Safety.MaxATRPct > 0 {
		scfg.MaxATRPct = cfg.Guards.Safety.MaxATRPct
	}
	if cfg.Guards.Safety.MinRiskReward > 0 {
		scfg.MinRiskReward = cfg.Guards.Safety.MinRiskReward
	}
	if cfg.Guards.Safety.MinTurnover > 0 {
		scfg.MinTurnover = cfg.Guards.Safety.MinTurnover
	}
	if cfg.Guards.Safety.SessionOpen != "" {
		scfg.SessionOpen = cfg.Guards.Safety.SessionOpen
	}
	if cfg.Guards.Safety.SessionClose != "" {
		scfg.SessionClose = cfg.Guards.Safety.SessionClose
	}
	if cfg.Guards.Safety.EntryCutoff > 0 {
		scfg.EntryCutoff = cfg.Guards.Safety.EntryCutoff
	}

	mcfg := guard.DefaultMasterConfig()
	if cfg.Guards.Master.MinConfidence > 0 {
		mcfg.MinConfidence = cfg.Guards.Master.MinConfidence
	}
	if cfg.Guards.Master.StrongFloor > 0 {
		mcfg.StrongFloor = cfg.Guards.Master.StrongFloor
	}

	return guard.NewChain(m,
		guard.NewSafety(scfg),
		exec,
		adaptive,
		cooldown,
		guard.NewMaster(mcfg),
	)
}

// ProvideKafkaProducer creates the Kafka producer, nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalSink routes emitted signals to Kafka when enabled.
func ProvideSignalSink(cfg *config.Config, producer *pkgkafka.Producer) repository.SignalSink {
	if producer == nil || cfg.Kafka.SignalsTopic == "" {
		return sink.NopSink{}
	}
	return sink.NewKafkaSink(producer, cfg.Kafka.SignalsTopic)
}

// ProvideKafkaConsumer creates the ticks consumer, nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaTicksHandler registers handler for the raw-ticks topic.
func ProvideKafkaTicksHandler(proc *usecase.TickProcessor, m repository.Metrics, cfg *config.Config) *usecase.KafkaTicksHandler {
	return usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, proc, m)
}

// ProvideTickProcessor creates the tick processor.
func ProvideTickProcessor(store *market.Store, exec *guard.Execution, m repository.Metrics) *usecase.TickProcessor {
	return usecase.NewTickProcessor(store, exec, m)
}

// ProvideTickCollector creates the collector with its pipeline.
func ProvideTickCollector(
	cfg *config.Config,
	stream repository.MarketStream,
	proc *usecase.TickProcessor,
	m repository.Metrics,
) *usecase.TickCollector {
	maxRPS, bufSize := cfg.Pipeline.MaxRPS, cfg.Pipeline.BufferSize
	if maxRPS <= 0 {
		maxRPS = 50
	}
	if bufSize <= 0 {
		bufSize = 2000
	}
	pipe := mid.NewTickPipeline(proc, m,
		mid.WithMaxRPS(maxRPS),
		mid.WithBufferSize(bufSize),
	)
	return usecase.NewTickCollector(stream, proc, m, pipe)
}

// ProvideRecorder creates the bounded signal history.
func ProvideRecorder(cfg *config.Config, s repository.SignalSink, m repository.Metrics, log *applogger.Logger) *usecase.SignalRecorder {
	return usecase.NewSignalRecorder(cfg.Scanner.HistorySize, s, m, log)
}

// ProvideRankings creates the ranking engine over the state store.
func ProvideRankings(cfg *config.Config, store *market.Store) *rankings.Engine {
	rc := rankings.DefaultConfig()
	if cfg.Rankings.Size > 0 {
		rc.Size = cfg.Rankings.Size
	}
	if cfg.Rankings.MinAbsChangePct > 0 {
		rc.MinAbsChangePct = cfg.Rankings.MinAbsChangePct
	}
	if cfg.Rankings.MinRangePct > 0 {
		rc.MinRangePct = cfg.Rankings.MinRangePct
	}
	return rankings.New(rc, store)
}

// ProvideScheduler creates the subscription scheduler.
func ProvideScheduler(cfg *config.Config, stream repository.MarketStream, m repository.Metrics, log *applogger.Logger) *scheduler.Scheduler {
	sc := scheduler.Config{
		Capacity:        cfg.Scheduler.Capacity,
		Core:            cfg.Scheduler.Core,
		ActiveSize:      cfg.Scheduler.ActiveSize,
		Mode:            models.SubscribeMode(cfg.Scheduler.Mode),
		Depth:           cfg.Scheduler.Depth,
		ReducedFraction: cfg.Scheduler.ReducedFraction,
	}
	if sc.Mode == "" {
		sc.Mode = models.ModeQuote
	}
	return scheduler.New(sc, stream, m, log)
}

// ProvideRunner creates the periodic task runner.
func ProvideRunner(log *applogger.Logger) *scheduler.Runner {
	return scheduler.NewRunner(log)
}

// ProvideScanner wires the scan loop.
func ProvideScanner(
	cfg *config.Config,
	store *market.Store,
	candles repository.CandleSource,
	engine *detect.Engine,
	orch *signal.Orchestrator,
	chain *guard.Chain,
	adaptive *guard.Adaptive,
	cooldown *guard.Cooldown,
	recorder *usecase.SignalRecorder,
	rank *rankings.Engine,
	sched *scheduler.Scheduler,
	m repository.Metrics,
	log *applogger.Logger,
) *usecase.Scanner {
	sc := usecase.DefaultScannerConfig()
	if cfg.Scanner.Interval > 0 {
		sc.Interval = cfg.Scanner.Interval
	}
	if cfg.Scanner.ReducedInterval > 0 {
		sc.ReducedInterval = cfg.Scanner.ReducedInterval
	}
	if cfg.Scanner.CandleCount > 0 {
		sc.CandleCount = cfg.Scanner.CandleCount
	}
	if cfg.Scanner.BenchmarkToken != "" {
		sc.BenchmarkToken = cfg.Scanner.BenchmarkToken
	}
	if cfg.Scanner.SessionOpen != "" {
		sc.SessionOpen = cfg.Scanner.SessionOpen
	}
	if len(cfg.Scanner.OptionSuffixes) > 0 {
		sc.OptionSuffixes = cfg.Scanner.OptionSuffixes
	}
	if cfg.Scanner.ExplosionKeep > 0 {
		sc.ExplosionKeep = cfg.Scanner.ExplosionKeep
	}
	return usecase.NewScanner(sc, store, candles, engine, orch, chain, adaptive, cooldown, recorder, rank, sched, m, log)
}

// ProvideFacadeCache creates the layered response cache when Redis is
// enabled; the facade degrades to uncached reads otherwise.
func ProvideFacadeCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, port := splitAddr(cfg.Redis.Addr)
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

func splitAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideHandler creates the facade handler.
func ProvideHandler(
	log *applogger.Logger,
	scanner *usecase.Scanner,
	recorder *usecase.SignalRecorder,
	rank *rankings.Engine,
	sched *scheduler.Scheduler,
	exec *guard.Execution,
	chain *guard.Chain,
	store *market.Store,
	candles repository.CandleSource,
	svc cache.Service,
) *api.ScannerHandler {
	h := api.NewScannerHandler(log, scanner, recorder, rank, sched, exec, chain, store, candles)
	if svc != nil {
		h.SetCache(svc)
	}
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickCollector,
	scanner *usecase.Scanner,
	sched *scheduler.Scheduler,
	rank *rankings.Engine,
	runner *scheduler.Runner,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaTicksHandler,
	handler *api.ScannerHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      sink.NewLogPublisher(producer),
		})
	}
	app := server.New(cfg, log, collector, scanner, sched, rank, runner, consumer, kh)
	app.SetHTTPHandler(handler)
	return app
}

var _ xhttp.Handler = (*api.ScannerHandler)(nil)
