// Package ata ensures the wallet holds an Associated Token Account for every
// mint a candidate route is about to touch before the sender assembles a
// transaction for it, grounded on core/connection_pool.go's background
// worker pattern and rate-limited via golang.org/x/time/rate the way a
// teacher/other_examples client paces RPC calls (spec.md §4.10).
package ata

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/solarb/engine/internal/types"
)

// request is one "make sure this ATA exists" job.
type request struct {
	owner solana.PublicKey
	mint  types.AccountKey
	done  chan error
}

// Worker owns a single background goroutine that checks, one request at a
// time and rate-limited against the RPC endpoint, whether an ATA exists. It
// does not create missing ATAs; a missing one is reported as ErrNotReady.
type Worker struct {
	log     *logrus.Entry
	rpc     *rpc.Client
	limiter *rate.Limiter

	mailbox chan request

	done    map[solana.PublicKey]struct{}
	inFlight map[solana.PublicKey]struct{}
}

func NewWorker(log *logrus.Logger, client *rpc.Client, limiter *rate.Limiter) *Worker {
	return &Worker{
		log:      log.WithField("component", "ata"),
		rpc:      client,
		limiter:  limiter,
		mailbox:  make(chan request, 256),
		done:     make(map[solana.PublicKey]struct{}),
		inFlight: make(map[solana.PublicKey]struct{}),
	}
}

// Run drains the mailbox until ctx is cancelled. Only this goroutine ever
// touches w.done/w.inFlight, so they're plain maps rather than sync.Maps —
// every other caller only ever sends on the channel.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.mailbox:
			req.done <- w.process(ctx, req)
		}
	}
}

// Ensure blocks until owner's ATA for mint is confirmed to exist, or returns
// ErrNotReady when it does not exist. A candidate whose ATA isn't ready yet is dropped rather
// than re-enqueued (spec.md Open Question: re-enqueue vs drop — dropping
// was chosen since by the time the ATA lands, the route's quote is stale
// anyway and the finder will have re-produced a fresh candidate if it's
// still profitable).
func (w *Worker) Ensure(ctx context.Context, owner solana.PublicKey, mint types.AccountKey) error {
	ataKey, _, err := solana.FindAssociatedTokenAddress(owner, solana.PublicKey(mint))
	if err != nil {
		return fmt.Errorf("ata: deriving address: %w", err)
	}
	if _, ok := w.done[ataKey]; ok {
		return nil
	}

	req := request{owner: owner, mint: mint, done: make(chan error, 1)}
	select {
	case w.mailbox <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) process(ctx context.Context, req request) error {
	ataKey, _, err := solana.FindAssociatedTokenAddress(req.owner, solana.PublicKey(req.mint))
	if err != nil {
		return err
	}
	if _, ok := w.done[ataKey]; ok {
		return nil
	}
	w.inFlight[ataKey] = struct{}{}
	defer delete(w.inFlight, ataKey)

	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	info, err := w.rpc.GetAccountInfo(ctx, ataKey)
	if err == nil && info != nil && info.Value != nil {
		w.done[ataKey] = struct{}{}
		return nil
	}

	// Account doesn't exist yet: nothing is created or submitted here, and
	// the sender drops the route on ErrNotReady. CreateInstruction builds the
	// create instruction, but no transaction in this engine includes it.
	w.log.WithFields(logrus.Fields{
		"ata":   ataKey.String(),
		"mint":  req.mint.String(),
		"owner": req.owner.String(),
	}).Debug("ata: missing, caller must include create instruction")
	return ErrNotReady
}

// ErrNotReady signals that owner's ATA for the mint does not exist yet, so a
// route touching that mint cannot be sent.
var ErrNotReady = fmt.Errorf("ata: account does not exist yet")

// CreateInstruction builds the idempotent create instruction for owner's
// ATA of mint, paid for by payer.
func CreateInstruction(payer, owner solana.PublicKey, mint types.AccountKey) (solana.Instruction, error) {
	return associatedtokenaccount.NewCreateIdempotentInstruction(payer, owner, solana.PublicKey(mint)).ValidateAndBuild()
}
