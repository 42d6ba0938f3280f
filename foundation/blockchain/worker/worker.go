// Package worker implements the background processes of a node: the gossip
// loop that keeps the peer registry converged, and a supervised pool that
// runs mining, broadcast and sync jobs detached from the requests that
// triggered them.
package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/blockchain/state"
)

// Defaults for a zero valued configuration.
const (
	defaultGossipInterval = 30 * time.Second
	defaultEvictThreshold = 3
	defaultJobTimeout     = 30 * time.Second
	defaultWorkers        = 2
	defaultQueueSize      = 100
)

// =============================================================================

// Config represents the configuration required to run the worker.
type Config struct {
	State          *state.State
	GossipInterval time.Duration
	EvictThreshold int
	JobTimeout     time.Duration
	Workers        int
	QueueSize      int
	EvHandler      state.EventHandler
}

// Worker manages the background workflows for the node.
type Worker struct {
	state          *state.State
	wg             sync.WaitGroup
	ticker         *time.Ticker
	shut           chan struct{}
	shutOnce       sync.Once
	jobs           chan job
	workers        int
	jobTimeout     time.Duration
	evictThreshold int
	failures       map[string]int
	syncQueued     atomic.Bool
	evHandler      state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(cfg Config) *Worker {
	w := newWorker(cfg)

	// Register this worker with the state package.
	cfg.State.Worker = w

	// Load the set of operations we need to run.
	operations := []func(){
		w.gossipOperations,
	}
	for i := 0; i < w.workers; i++ {
		operations = append(operations, w.jobOperations)
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return w
}

// newWorker constructs a worker without starting any goroutines.
func newWorker(cfg Config) *Worker {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.GossipInterval
	if interval <= 0 {
		interval = defaultGossipInterval
	}

	threshold := cfg.EvictThreshold
	if threshold <= 0 {
		threshold = defaultEvictThreshold
	}

	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Worker{
		state:          cfg.State,
		ticker:         time.NewTicker(interval),
		shut:           make(chan struct{}),
		jobs:           make(chan job, queueSize),
		workers:        workers,
		jobTimeout:     timeout,
		evictThreshold: threshold,
		failures:       make(map[string]int),
		evHandler:      ev,
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work. Jobs still in the
// queue are abandoned.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.shutOnce.Do(func() {
		w.evHandler("worker: shutdown: stop ticker")
		w.ticker.Stop()

		w.evHandler("worker: shutdown: terminate goroutines")
		close(w.shut)
		w.wg.Wait()
	})
}

// SignalMining queues a job that mines a block holding the pending pool and
// the provided transactions and broadcasts it.
func (w *Worker) SignalMining(args state.MineArgs) {
	w.submit("mine", func(ctx context.Context) error {
		res, err := w.state.Mine(ctx, args)
		if err != nil {
			return err
		}

		w.evHandler("worker: mine: blk[%d]: hash[%s]: length[%d]: delivered[%d/%d]",
			res.Block.Index, res.Block.Hash(), res.Length, res.Broadcast.Count(state.PeerSuccess), len(res.Broadcast))
		return nil
	})
}

// SignalBroadcast queues a job that proposes the block to the peers.
func (w *Worker) SignalBroadcast(block database.Block) {
	w.submit("broadcast", func(ctx context.Context) error {
		w.state.Broadcast(ctx, block)
		return nil
	})
}

// SignalSync queues a pull sync. If a sync is already waiting in the queue,
// just return since that sync will cover this request.
func (w *Worker) SignalSync() {
	if !w.syncQueued.CompareAndSwap(false, true) {
		w.evHandler("worker: SignalSync: sync already queued")
		return
	}

	queued := w.submit("sync", func(ctx context.Context) error {
		w.syncQueued.Store(false)

		res, err := w.state.Sync(ctx)
		if err != nil {
			return err
		}

		w.evHandler("worker: sync: replaced[%t]: length[%d]", res.Replaced, res.Length)
		return nil
	})

	if !queued {
		w.syncQueued.Store(false)
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
