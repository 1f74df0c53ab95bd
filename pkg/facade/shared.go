package facade

import (
	"github.com/rs/zerolog"
	"github.com/tidwall/tinylru"

	"github.com/lintang-b-s/roadfacade/pkg/dataset"
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/server"
	"github.com/lintang-b-s/roadfacade/pkg/storage"
)

// pebbleNames resolves street names straight from the attached store.
type pebbleNames struct {
	store *storage.PebbleStore
	cache tinylru.LRU
	log   zerolog.Logger
}

func newPebbleNames(store *storage.PebbleStore, cacheSize int, log zerolog.Logger) *pebbleNames {
	n := &pebbleNames{store: store, log: log}
	n.cache.Resize(cacheSize)
	return n
}

func (n *pebbleNames) Name(id datastructure.NameID) string {
	if cached, ok := n.cache.Get(id); ok {
		return cached.(string)
	}

	name, found, err := n.store.ReadName(uint32(id))
	if err != nil {
		n.log.Error().Err(err).Uint32("name_id", uint32(id)).Msg("read street name")
		return ""
	}
	if !found {
		panicUnknownName(id)
	}
	n.cache.Set(id, name)
	return name
}

// SharedDataFacade attaches read-only to a pebble store that other processes
// may have open at the same time. Street names are read lazily.
type SharedDataFacade[T any] struct {
	*base[T]
	store *storage.PebbleStore
}

func OpenSharedDataFacade[T any](dir string, opts ...Option) (*SharedDataFacade[T], error) {
	o := newOptions(opts)

	store, err := storage.OpenPebbleStore(dir, true)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInvalidDataset, "attach dataset %s", dir)
	}

	d, err := dataset.Load[T](store, dataset.WithoutNames(), dataset.WithLoadLogger(o.log))
	if err != nil {
		store.Close()
		return nil, server.WrapErrorf(err, server.ErrInvalidDataset, "attach dataset %s", dir)
	}

	b, err := newBase(d, newPebbleNames(store, o.nameCacheSize, o.log), o)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &SharedDataFacade[T]{base: b, store: store}, nil
}

// Close detaches from the store. The facade must not be used afterwards.
func (f *SharedDataFacade[T]) Close() error {
	indexErr := f.close()
	if err := f.store.Close(); err != nil {
		return err
	}
	return indexErr
}

var _ DataFacade[datastructure.QueryEdgeData] = (*SharedDataFacade[datastructure.QueryEdgeData])(nil)
