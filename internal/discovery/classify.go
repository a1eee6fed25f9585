package discovery

import (
	"context"

	"github.com/gagliardetto/solana-go/rpc"

	"github.com/solarb/engine/internal/types"
)

// classifyAndDispatch inspects every account a transaction touched. A key
// the cache has never seen is a candidate new pool, handed to the
// admitter's Admit (which itself decides whether the curve registry
// supports it); a key already registered is a routine state update, handed
// to the cache's Ingest. This mirrors original_source's watcher
// classification step without needing per-DEX instruction decoding — the
// account *kind* decode inside Admit/Ingest is what actually validates the
// data, so a wrongly-guessed "might be a pool" key simply fails decode and
// is dropped.
func (w *Watcher) classifyAndDispatch(ctx context.Context, tx *rpc.GetTransactionResult) {
	if tx == nil || tx.Transaction == nil {
		return
	}
	parsed, err := tx.Transaction.GetTransaction()
	if err != nil || parsed == nil {
		return
	}

	keys := parsed.Message.AccountKeys
	if len(keys) == 0 {
		return
	}

	infos, err := w.rpc.GetMultipleAccounts(ctx, keys...)
	if err != nil || infos == nil {
		return
	}

	for i, acc := range infos.Value {
		if acc == nil {
			continue
		}
		key := types.AccountKey(keys[i])
		raw := acc.Data.GetBinary()

		if w.cache.Nonexistent(key) {
			w.tryAdmitUnknown(key, acc.Owner, raw)
			continue
		}

		kind := w.cache.Kind(key)
		if kind == types.KindUnknown {
			continue
		}
		if err := w.cache.Ingest(key, raw); err != nil {
			w.log.WithError(err).WithField("key", key.String()).Debug("discovery: ingest failed")
		}
	}
}
