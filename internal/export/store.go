package export

import (
	"fmt"
	"time"

	"github.com/aleksaelezovic/tridex/internal/encoding"
	"github.com/aleksaelezovic/tridex/internal/notify"
	"github.com/aleksaelezovic/tridex/pkg/store"
)

// ToStore loads in into storage, in both directions. Existing keys of the
// namespace are overwritten; callers that want a clean store Reset it first.
func ToStore(in *encoding.Interner, storage store.Storage, opts Options) (uint64, error) {
	opts = opts.withDefaults()
	start := time.Now()
	namespace := in.Namespace().String()
	toID, toToken := store.DictionaryTables(in.Namespace())
	total := in.Len()

	batch := storage.NewWriteBatch()

	var written uint64
	err := in.Each(encoding.OrderID, func(token []byte, id uint64) error {
		key := encoding.EncodeID(id)
		if err := batch.Set(toID, token, key); err != nil {
			return err
		}
		if err := batch.Set(toToken, key, token); err != nil {
			return err
		}

		written++
		if written%opts.FlushInterval == 0 {
			opts.Notifier.Notify(notify.Event{
				Kind:      notify.KindExportProgress,
				Namespace: namespace,
				Exported:  written,
				Total:     total,
			})
		}
		return nil
	})
	if err != nil {
		batch.Cancel()
		return written, fmt.Errorf("failed to store %s dictionary: %w", namespace, err)
	}
	if err := batch.Flush(); err != nil {
		return written, fmt.Errorf("failed to store %s dictionary: %w", namespace, err)
	}

	opts.Notifier.Notify(notify.Event{
		Kind:      notify.KindExportDone,
		Namespace: namespace + " store",
		Exported:  written,
		Total:     total,
		Duration:  time.Since(start),
	})
	return written, nil
}
