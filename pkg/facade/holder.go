package facade

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type instance[T any] struct {
	facade DataFacade[T]
	// readers hold mu shared, retiring takes it exclusively.
	mu      sync.RWMutex
	retired bool
}

// Holder publishes the current facade. Swap replaces it atomically and
// releases the old one only after its last reader is done.
type Holder[T any] struct {
	current atomic.Pointer[instance[T]]
	swapMu  sync.Mutex
	log     zerolog.Logger
}

func NewHolder[T any](f DataFacade[T], log zerolog.Logger) *Holder[T] {
	h := &Holder[T]{log: log}
	h.current.Store(&instance[T]{facade: f})
	return h
}

// Acquire returns the current facade. It stays usable until release is called.
func (h *Holder[T]) Acquire() (DataFacade[T], func()) {
	for {
		inst := h.current.Load()
		inst.mu.RLock()
		if inst.retired {
			inst.mu.RUnlock()
			continue
		}
		var once sync.Once
		return inst.facade, func() {
			once.Do(inst.mu.RUnlock)
		}
	}
}

// Swap publishes f and blocks until the previous facade is drained and closed.
func (h *Holder[T]) Swap(f DataFacade[T]) error {
	h.swapMu.Lock()
	defer h.swapMu.Unlock()

	old := h.current.Swap(&instance[T]{facade: f})
	h.log.Info().
		Uint32("old_checksum", old.facade.CheckSum()).
		Uint32("new_checksum", f.CheckSum()).
		Msg("data facade swapped, draining readers")
	return retire(old)
}

// Close retires the current facade. Acquire must not be called afterwards.
func (h *Holder[T]) Close() error {
	h.swapMu.Lock()
	defer h.swapMu.Unlock()
	return retire(h.current.Load())
}

func retire[T any](inst *instance[T]) error {
	inst.mu.Lock()
	if inst.retired {
		inst.mu.Unlock()
		return nil
	}
	inst.retired = true
	inst.mu.Unlock()

	if closer, ok := inst.facade.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
