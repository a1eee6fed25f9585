// Package transport owns the engine's two connections to a Solana
// validator: a plain JSON-RPC client for point queries (account fetches,
// GetAddressLookupTable, SendTransaction) and a persistent websocket client
// for the discovery watcher's logs-subscribe stream. Reconnection backs off
// via cenkalti/backoff/v5, grounded on core/connection_pool.go's reaper
// pattern generalized from pooled TCP dials to a single long-lived
// websocket.
package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/ws"
	"github.com/sirupsen/logrus"
)

type Transport struct {
	log *logrus.Entry

	RPC *rpc.Client

	wsEndpoint string
	ws         *ws.Client
}

func New(log *logrus.Logger, rpcEndpoint, wsEndpoint string) *Transport {
	return &Transport{
		log:        log.WithField("component", "transport"),
		RPC:        rpc.New(rpcEndpoint),
		wsEndpoint: wsEndpoint,
	}
}

// WS returns the current websocket client, dialing it on first use.
func (t *Transport) WS(ctx context.Context) (*ws.Client, error) {
	if t.ws != nil {
		return t.ws, nil
	}
	return t.Reconnect(ctx)
}

// Reconnect tears down and redials the websocket client with exponential
// backoff, capped per spec.md §4.11's reconnect policy (120s ceiling, 20
// attempts before the watcher gives up and surfaces an error to its
// caller).
func (t *Transport) Reconnect(ctx context.Context) (*ws.Client, error) {
	if t.ws != nil {
		t.ws.Close()
		t.ws = nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 120 * time.Second

	operation := func() (*ws.Client, error) {
		client, err := ws.Connect(ctx, t.wsEndpoint)
		if err != nil {
			t.log.WithError(err).Warn("transport: websocket dial failed, retrying")
			return nil, err
		}
		return client, nil
	}

	client, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(20),
	)
	if err != nil {
		return nil, fmt.Errorf("transport: websocket reconnect exhausted: %w", err)
	}
	t.ws = client
	return client, nil
}

func (t *Transport) Close() {
	if t.ws != nil {
		t.ws.Close()
	}
}
