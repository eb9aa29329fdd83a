package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"
)

// WaitRetryCount is a threshold for a number of subsequent failed attempts
// to get a transaction receipt in Wait. Receipt queries answered with
// ethereum.NotFound do not count, the transaction is simply not accepted
// yet. If the query fails WaitRetryCount times in a row the awaiting attempt
// is considered failed and an error is returned.
const WaitRetryCount = 3

const defaultPollInterval = time.Second

// ErrReverted is returned by Wait for transactions accepted to the chain
// that failed during execution.
var ErrReverted = errors.New("transaction reverted")

// Wait polls the Backend until the transaction is accepted to the chain and
// returns its receipt. For transactions with the failed execution status
// both the receipt and an ErrReverted-based error are returned. Awaiting is
// interrupted when the context is done.
func (a *Actor) Wait(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	var failedAttempt int
	timer := time.NewTicker(a.opts.PollInterval)
	defer timer.Stop()
	for {
		r, err := a.backend.TransactionReceipt(ctx, tx.Hash())
		switch {
		case err == nil:
			if r.Status == types.ReceiptStatusFailed {
				return r, fmt.Errorf("%w: %s", ErrReverted, tx.Hash())
			}
			return r, nil
		case errors.Is(err, ethereum.NotFound):
			failedAttempt = 0
		default:
			failedAttempt++
			if failedAttempt > WaitRetryCount {
				return nil, fmt.Errorf("failed to retrieve receipt: %w", err)
			}
		}
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// WaitAll awaits all of the given transactions concurrently and returns
// their receipts in the argument order. The first failed wait interrupts and
// fails the rest.
func (a *Actor) WaitAll(ctx context.Context, txs ...*types.Transaction) ([]*types.Receipt, error) {
	receipts := make([]*types.Receipt, len(txs))
	g, gctx := errgroup.WithContext(ctx)
	for i, tx := range txs {
		i, tx := i, tx
		g.Go(func() error {
			r, err := a.Wait(gctx, tx)
			if err != nil {
				return err
			}
			receipts[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return receipts, nil
}
