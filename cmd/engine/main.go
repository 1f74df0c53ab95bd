package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lintang-b-s/roadfacade/pkg/config"
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/facade"
	"github.com/lintang-b-s/roadfacade/pkg/kv"
	"github.com/lintang-b-s/roadfacade/pkg/server/rest"
	"github.com/lintang-b-s/roadfacade/pkg/server/rest/service"
)

var (
	configFile = flag.String("config", "", "yaml config file, defaults are used when empty")
	listenAddr = flag.String("listenaddr", "", "server listen address, overrides the config")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile = flag.String("memprofile", "", "write memory profile to this file")
)

type edgeData = datastructure.QueryEdgeData

func main() {
	flag.Parse()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "roadfacade").Logger()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	logger = logger.Level(cfg.Level())

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			logger.Fatal().Err(err).Msg("create cpu profile")
		}
		defer f.Close()

		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	reg := prometheus.NewRegistry()
	facadeMetrics := facade.NewMetrics(reg)

	f, err := openFacade(cfg, facadeMetrics, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("dataset", cfg.DatasetDir).Msg("open data facade")
	}
	recordMemProfile(memprofile, "load_data_facade", logger)

	holder := facade.NewHolder[edgeData](f, logger)
	defer func() {
		if err := holder.Close(); err != nil {
			logger.Error().Err(err).Msg("close data facade")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go reloadOnHangup(ctx, holder, cfg, facadeMetrics, logger)

	m := rest.NewMetrics(reg)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(rest.PromeHttpMiddleware(m)) // prometheus http middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/debug", middleware.Profiler())

	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	rest.SnappingRouter(r, service.NewSnappingService(holder, logger))

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown http server")
		}
	}()

	logger.Info().
		Str("addr", cfg.ListenAddr).
		Str("backend", cfg.Backend).
		Str("spatial_index", cfg.SpatialIndex).
		Msg("server started")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("http server")
	}
}

// openFacade builds the facade the config asks for and wraps it with metrics.
func openFacade(cfg config.Config, m *facade.Metrics, logger zerolog.Logger) (facade.DataFacade[edgeData], error) {
	opts := []facade.Option{
		facade.WithLogger(logger),
		facade.WithRtreeFanout(cfg.RtreeMinChildren, cfg.RtreeMaxChildren),
		facade.WithMaxSearchRadius(cfg.MaxSearchRadius),
		facade.WithNameCacheSize(cfg.NameCacheSize),
	}

	var idx *kv.CellIndex
	if cfg.SpatialIndex == config.SpatialIndexH3 {
		var err error
		idx, err = kv.OpenCellIndex(cfg.CellIndexDir, true, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, facade.WithCellIndex(idx))
	}

	var (
		f   facade.DataFacade[edgeData]
		err error
	)
	switch cfg.Backend {
	case config.BackendShared:
		f, err = facade.OpenSharedDataFacade[edgeData](cfg.DatasetDir, opts...)
	default:
		f, err = facade.LoadInternalDataFacade[edgeData](cfg.DatasetDir, opts...)
	}
	if err != nil {
		if idx != nil {
			idx.Close()
		}
		return nil, err
	}
	return facade.NewInstrumented(f, m), nil
}

// reloadOnHangup swaps in a freshly opened facade on every SIGHUP. A dataset
// that fails to open leaves the current one in place.
func reloadOnHangup(ctx context.Context, holder *facade.Holder[edgeData], cfg config.Config,
	m *facade.Metrics, logger zerolog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			f, err := openFacade(cfg, m, logger)
			if err != nil {
				logger.Error().Err(err).Str("dataset", cfg.DatasetDir).Msg("reload data facade")
				continue
			}
			if err := holder.Swap(f); err != nil {
				logger.Error().Err(err).Msg("close previous data facade")
			}
		}
	}
}

func recordMemProfile(memprofile *string, name string, logger zerolog.Logger) {
	if *memprofile != "" {
		path := strings.Replace(*memprofile, ".mprof", fmt.Sprintf("%s.mprof", name), -1)
		f, err := os.Create(path)
		if err != nil {
			logger.Error().Err(err).Msg("create memory profile")
			return
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}
}
