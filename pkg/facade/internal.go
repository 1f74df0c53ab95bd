package facade

import (
	"github.com/lintang-b-s/roadfacade/pkg/dataset"
	"github.com/lintang-b-s/roadfacade/pkg/datastructure"
	"github.com/lintang-b-s/roadfacade/pkg/server"
	"github.com/lintang-b-s/roadfacade/pkg/storage"
)

// InternalDataFacade keeps a private in memory copy of the whole dataset.
type InternalDataFacade[T any] struct {
	*base[T]
}

func NewInternalDataFacade[T any](d *dataset.Dataset[T], opts ...Option) (*InternalDataFacade[T], error) {
	if d.Names == nil {
		return nil, server.NewErrorf(server.ErrInvalidDataset, "dataset %08x has no name table", d.Checksum)
	}
	b, err := newBase(d, tableNames{table: d.Names}, newOptions(opts))
	if err != nil {
		return nil, err
	}
	return &InternalDataFacade[T]{base: b}, nil
}

// LoadInternalDataFacade reads every resource from dir.
func LoadInternalDataFacade[T any](dir string, opts ...Option) (*InternalDataFacade[T], error) {
	o := newOptions(opts)
	d, err := dataset.Load[T](storage.NewDirStore(dir), dataset.WithLoadLogger(o.log))
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrInvalidDataset, "load dataset %s", dir)
	}
	return NewInternalDataFacade(d, opts...)
}

func (f *InternalDataFacade[T]) Close() error {
	return f.close()
}

var _ DataFacade[datastructure.QueryEdgeData] = (*InternalDataFacade[datastructure.QueryEdgeData])(nil)
