package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/roleledger/node/app/services/node/handlers"
	"github.com/roleledger/node/business/data/resource"
	"github.com/roleledger/node/foundation/blockchain/bootstrap"
	"github.com/roleledger/node/foundation/blockchain/contract"
	"github.com/roleledger/node/foundation/blockchain/peer"
	"github.com/roleledger/node/foundation/blockchain/state"
	"github.com/roleledger/node/foundation/blockchain/worker"
	"github.com/roleledger/node/foundation/events"
	"github.com/roleledger/node/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			APIHost         string        `conf:"default:0.0.0.0:5002"`
			AllowedOrigins  []string      `conf:"default:*"`
		}
		Node struct {
			Role              string        `conf:"default:master"`
			Hostname          string        `conf:"help:identity host of the node, defaults to the HOSTNAME"`
			Port              int           `conf:"default:5002"`
			Label             string        `conf:"help:display only suffix such as a container id"`
			BootstrapAddress  string        `conf:"default:127.0.0.1:5002"`
			MasterService     string        `conf:"help:DNS name enumerating the master replicas"`
			BootstrapAttempts int           `conf:"default:30"`
			BootstrapInterval time.Duration `conf:"default:2s"`
		}
		Chain struct {
			Difficulty uint `conf:"default:1"`
		}
		Peer struct {
			Timeout          time.Duration `conf:"default:3s"`
			BroadcastTimeout time.Duration `conf:"default:2s"`
		}
		Gossip struct {
			Interval       time.Duration `conf:"default:30s"`
			EvictThreshold int           `conf:"default:3"`
		}
		Mining struct {
			Timeout time.Duration `conf:"default:30s"`
			Workers int           `conf:"default:2"`
		}
		Resource struct {
			DBPath string `conf:"default:zblock/resources"`
			Seed   bool   `conf:"default:true"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "role based ledger node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	hostname := cfg.Node.Hostname
	if hostname == "" {
		hostname = os.Getenv("HOSTNAME")
	}
	if hostname == "" {
		if hostname, err = os.Hostname(); err != nil {
			return fmt.Errorf("resolving hostname: %w", err)
		}
	}
	host := net.JoinHostPort(hostname, strconv.Itoa(cfg.Node.Port))

	// =========================================================================
	// Resource Store Support

	// The resource store is written by the update_resource_allocation
	// contract on provider nodes. An empty path runs the node without one.
	var store resource.Storer
	var contractStore contract.Store
	if cfg.Resource.DBPath != "" {
		log.Infow("startup", "status", "opening resource store", "path", cfg.Resource.DBPath)

		db, err := resource.OpenBadger(cfg.Resource.DBPath, log)
		if err != nil {
			return fmt.Errorf("opening resource store: %w", err)
		}
		defer func() {
			log.Infow("shutdown", "status", "closing resource store", "path", cfg.Resource.DBPath)
			db.Close()
		}()

		if cfg.Resource.Seed {
			n, err := resource.Seed(context.Background(), db)
			if err != nil {
				return fmt.Errorf("seeding resource store: %w", err)
			}
			log.Infow("startup", "status", "resource store seeded", "added", n)
		}

		store = db
		contractStore = db
	}

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New(events.DefaultBuffer)
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// The state value represents the blockchain node and manages the blockchain
	// database and provides an API for application support.
	st, err := state.New(state.Config{
		Host:             host,
		Role:             cfg.Node.Role,
		Label:            cfg.Node.Label,
		BootstrapAddress: cfg.Node.BootstrapAddress,
		Difficulty:       cfg.Chain.Difficulty,
		Registry:         peer.NewRegistry(),
		Store:            contractStore,
		PeerTimeout:      cfg.Peer.Timeout,
		BroadcastTimeout: cfg.Peer.BroadcastTimeout,
		EvHandler:        ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker package implements the gossip loop and the job pool for
	// mining, broadcasting and syncing. The worker will register itself with
	// the state.
	worker.Run(worker.Config{
		State:          st,
		GossipInterval: cfg.Gossip.Interval,
		EvictThreshold: cfg.Gossip.EvictThreshold,
		JobTimeout:     cfg.Mining.Timeout,
		Workers:        cfg.Mining.Workers,
		EvHandler:      ev,
	})

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, st)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	// Construct the mux for the API calls.
	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Store:    store,
		Evts:     evts,

		AllowedOrigins: cfg.Web.AllowedOrigins,
	})

	// Construct a server to service the requests against the mux.
	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      apiMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Bootstrap

	// The node is listening, so peers registering back during the join can
	// reach it. The bootstrap either seeds the network or copies its chain.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		res, err := bootstrap.Run(ctx, bootstrap.Config{
			State:         st,
			Attempts:      cfg.Node.BootstrapAttempts,
			Interval:      cfg.Node.BootstrapInterval,
			MasterService: cfg.Node.MasterService,
			MasterPort:    strconv.Itoa(cfg.Node.Port),
			EvHandler:     bootstrap.EventHandler(ev),
		})
		if err != nil {
			log.Errorw("startup", "status", "bootstrap failed", "ERROR", err)
			return
		}
		log.Infow("startup", "status", "bootstrap completed", "mode", res.Mode, "source", res.Source, "length", res.Length)
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Stop a bootstrap that is still polling.
		cancel()

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown API started")
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop api service gracefully: %w", err)
		}
	}

	return nil
}
