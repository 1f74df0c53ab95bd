package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime/pprof"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lintang-b-s/roadfacade/pkg/config"
	"github.com/lintang-b-s/roadfacade/pkg/dataset"
	"github.com/lintang-b-s/roadfacade/pkg/dataset/fixture"
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/kv"
	"github.com/lintang-b-s/roadfacade/pkg/osmparser"
	"github.com/lintang-b-s/roadfacade/pkg/storage"
)

var (
	configFile = flag.String("config", "", "yaml config file, defaults are used when empty")
	mapFile    = flag.String("f", "", "openstreetmap extract (.osm.pbf or .osm) to build the dataset from")
	sample     = flag.Bool("sample", false, "write the sample grid network to the dataset dir before exporting")
	pebbleDir  = flag.String("pebble", "", "export the dataset to a pebble store in this dir for the shared backend")
	cellsDir   = flag.String("cells", "", "build the h3 cell index in this dir, defaults to cell_index_dir of the config")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

type edgeData = datastructure.QueryEdgeData

func main() {
	flag.Parse()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "roadfacade-preprocessing").Logger()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := loadDataset(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("dataset", cfg.DatasetDir).Msg("load dataset")
	}

	cells := *cellsDir
	if cells == "" {
		cells = cfg.CellIndexDir
	}

	var (
		wg      sync.WaitGroup
		cellErr error
	)
	if cells != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cellErr = buildCellIndex(ctx, cells, d, logger)
		}()
	}

	if *pebbleDir != "" {
		if err := exportShared(*pebbleDir, d, logger); err != nil {
			logger.Fatal().Err(err).Str("dir", *pebbleDir).Msg("export dataset to pebble")
		}
	}

	wg.Wait()
	if cellErr != nil {
		logger.Fatal().Err(cellErr).Str("dir", cells).Msg("build cell index")
	}
	logger.Info().Uint32("checksum", d.Checksum).Msg("preprocessing done")
}

// loadDataset builds the dataset from an OSM extract or the sample network and
// saves it, or loads the one already in the dataset dir.
func loadDataset(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*dataset.Dataset[edgeData], error) {
	store := storage.NewDirStore(cfg.DatasetDir)

	var (
		d   *dataset.Dataset[edgeData]
		err error
	)
	switch {
	case *mapFile != "":
		logger.Info().Str("file", *mapFile).Msg("reading osm file")
		b := dataset.NewBuilder[edgeData](
			dataset.WithSmallComponentSize(cfg.SmallComponentSize),
			dataset.WithBuilderLogger(logger))
		if err := osmparser.NewOSMParser(b, logger).Parse(ctx, osmparser.FileScanner(*mapFile)); err != nil {
			return nil, err
		}
		d, err = b.Build()
	case *sample:
		d, err = fixture.Network(dataset.WithBuilderLogger(logger))
	default:
		return dataset.Load[edgeData](store, dataset.WithLoadLogger(logger))
	}
	if err != nil {
		return nil, err
	}

	if err := d.Save(store); err != nil {
		return nil, err
	}
	logger.Info().Str("dir", cfg.DatasetDir).Uint32("checksum", d.Checksum).Msg("dataset written")
	return d, nil
}

func exportShared(dir string, d *dataset.Dataset[edgeData], logger zerolog.Logger) error {
	store, err := storage.OpenPebbleStore(dir, false)
	if err != nil {
		return err
	}
	if err := d.SaveShared(store); err != nil {
		store.Close()
		return err
	}
	logger.Info().Str("dir", dir).Uint32("checksum", d.Checksum).Msg("dataset exported to pebble")
	return store.Close()
}

func buildCellIndex(ctx context.Context, dir string, d *dataset.Dataset[edgeData], logger zerolog.Logger) error {
	idx, err := kv.OpenCellIndex(dir, false, logger)
	if err != nil {
		return err
	}
	if err := idx.Build(ctx, d.Segments, d.Checksum); err != nil {
		idx.Close()
		return err
	}
	return idx.Close()
}
