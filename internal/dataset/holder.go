package dataset

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Holder publishes the current dataset. Readers take a snapshot with Current
// and keep using it for the whole query, so a reload never changes a dataset
// underneath a running lookup.
type Holder struct {
	current atomic.Pointer[Dataset]
	loader  Loader
	sources Sources
}

// NewHolder wraps an initial dataset. loader and sources are used by Reload.
func NewHolder(ds *Dataset, loader Loader, sources Sources) *Holder {
	h := &Holder{loader: loader, sources: sources}
	h.current.Store(ds)
	return h
}

// Current returns the dataset in effect
func (h *Holder) Current() *Dataset {
	return h.current.Load()
}

// Reload loads a fresh dataset and swaps it in
func (h *Holder) Reload(ctx context.Context) (*Dataset, error) {
	if h.loader == nil {
		return nil, eris.New("dataset: reload without a loader")
	}
	ds, err := Load(ctx, h.loader, h.sources)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: reload")
	}
	h.current.Store(ds)
	zap.L().Info("dataset: reloaded", zap.Time("loaded_at", ds.LoadedAt))
	return ds, nil
}
