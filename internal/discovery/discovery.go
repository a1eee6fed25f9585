// Package discovery subscribes to the chain's logs feed for every tracked
// program and turns observed transactions into pool-admission and
// account-ingest calls, grounded on original_source's src/watcher/mod.rs
// batching/heartbeat design and built over solana-go's ws.Client the way the
// rest of this engine's Solana-facing code uses the ecosystem library
// instead of hand-rolled JSON-RPC (spec.md §4.11).
package discovery

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/ws"
	"github.com/sirupsen/logrus"

	"github.com/solarb/engine/internal/admitter"
	"github.com/solarb/engine/internal/cache"
	"github.com/solarb/engine/internal/transport"
	"github.com/solarb/engine/internal/types"
)

// Config bundles the watcher's batching and liveness tunables.
type Config struct {
	Programs        []solana.PublicKey
	ProgramKinds    map[solana.PublicKey]types.AccountKind // owning program -> the pool kind it mints
	BatchSize       int                                    // 3 — programs per logs-subscribe batch
	BatchInterval   time.Duration                          // 300ms between batches during initial subscribe
	SubscribeDelay  time.Duration                          // 1s settle time, once, after the last batch (not between batches)
	HeartbeatPeriod time.Duration                          // 25s
	SilenceTimeout  time.Duration                          // 90s — no message at all triggers a reconnect
}

// Watcher owns the websocket subscriptions and reconnect loop.
type Watcher struct {
	log       *logrus.Entry
	transport *transport.Transport
	rpc       *rpc.Client
	cache     *cache.Cache
	admitter  *admitter.Admitter
	cfg       Config

	lastMessage time.Time
}

func New(log *logrus.Logger, t *transport.Transport, rpcClient *rpc.Client, c *cache.Cache, a *admitter.Admitter, cfg Config) *Watcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 3
	}
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = 300 * time.Millisecond
	}
	if cfg.SubscribeDelay <= 0 {
		cfg.SubscribeDelay = time.Second
	}
	if cfg.HeartbeatPeriod <= 0 {
		cfg.HeartbeatPeriod = 25 * time.Second
	}
	if cfg.SilenceTimeout <= 0 {
		cfg.SilenceTimeout = 90 * time.Second
	}
	return &Watcher{
		log:       log.WithField("component", "discovery"),
		transport: t,
		rpc:       rpcClient,
		cache:     c,
		admitter:  a,
		cfg:       cfg,
	}
}

// Run subscribes to every configured program's logs in batches, then
// processes incoming messages until ctx is cancelled, reconnecting on
// sustained silence (spec.md §4.11).
func (w *Watcher) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		if err := w.runOnce(ctx); err != nil && ctx.Err() == nil {
			w.log.WithError(err).Warn("discovery: session ended, reconnecting")
			if _, err := w.transport.Reconnect(ctx); err != nil {
				return err
			}
		}
	}
	return ctx.Err()
}

func (w *Watcher) runOnce(ctx context.Context) error {
	client, err := w.transport.WS(ctx)
	if err != nil {
		return err
	}

	subs := make([]*ws.LogSubscription, 0, len(w.cfg.Programs))
	for i, program := range w.cfg.Programs {
		sub, err := client.LogsSubscribeMentions(program, rpc.CommitmentConfirmed)
		if err != nil {
			return err
		}
		subs = append(subs, sub)
		defer sub.Unsubscribe()

		if (i+1)%w.cfg.BatchSize == 0 {
			time.Sleep(w.cfg.BatchInterval)
		}
	}
	time.Sleep(w.cfg.SubscribeDelay)

	w.lastMessage = timeNow()
	silence := time.NewTicker(w.cfg.SilenceTimeout)
	defer silence.Stop()
	heartbeat := time.NewTicker(w.cfg.HeartbeatPeriod)
	defer heartbeat.Stop()

	results := make(chan *ws.LogResult, 1024)
	for _, sub := range subs {
		sub := sub
		go func() {
			for {
				res, err := sub.Recv(ctx)
				if err != nil {
					return
				}
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-silence.C:
			if timeNow().Sub(w.lastMessage) >= w.cfg.SilenceTimeout {
				return errSilence
			}
		case <-heartbeat.C:
			w.log.WithField("since_last_message", timeNow().Sub(w.lastMessage)).Debug("discovery: heartbeat")
		case res := <-results:
			w.lastMessage = timeNow()
			w.handleLogResult(ctx, res)
		}
	}
}

func (w *Watcher) handleLogResult(ctx context.Context, res *ws.LogResult) {
	if res == nil || res.Value.Err != nil {
		return
	}
	sig := res.Value.Signature
	tx, err := w.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: maxTxVersion(0),
	})
	if err != nil {
		w.log.WithError(err).WithField("sig", sig.String()).Debug("discovery: failed to fetch transaction")
		return
	}
	w.classifyAndDispatch(ctx, tx)
}

func maxTxVersion(v uint64) *uint64 { return &v }

var timeNow = time.Now

type silenceError struct{}

func (silenceError) Error() string { return "discovery: no messages received within silence timeout" }

var errSilence = silenceError{}
