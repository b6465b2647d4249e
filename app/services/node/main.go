package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/opencoin/blockchain/app/services/node/handlers"
	"github.com/opencoin/blockchain/foundation/blockchain/nodeclient"
	"github.com/opencoin/blockchain/foundation/blockchain/peer"
	"github.com/opencoin/blockchain/foundation/blockchain/signature"
	"github.com/opencoin/blockchain/foundation/blockchain/state"
	"github.com/opencoin/blockchain/foundation/blockchain/verify"
	"github.com/opencoin/blockchain/foundation/blockchain/worker"
	"github.com/opencoin/blockchain/foundation/events"
	"github.com/opencoin/blockchain/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags
// in the makefile.
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
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
		}
		Node struct {
			MinerName  string   `conf:"default:miner1"`
			KeysFolder string   `conf:"default:zblock/accounts/"`
			Difficulty int      `conf:"default:4"`
			KnownPeers []string `conf:"default:http://0.0.0.0:9180"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "single node proof-of-work chain engine",
		},
	}

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

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Blockchain Support

	// Load the private key for the configured miner so the node's
	// identity can be credited with mining rewards. A node without a key
	// still runs, it just never mines.
	var beneficiaryID string
	path := fmt.Sprintf("%s%s.ecdsa", cfg.Node.KeysFolder, cfg.Node.MinerName)
	privateKey, err := crypto.LoadECDSA(path)
	switch {
	case err != nil:
		log.Infow("startup", "status", "no private key, node will not mine", "path", path)
	default:
		beneficiaryID = signature.PublicKeyToIdentity(privateKey.PublicKey)
		log.Infow("startup", "status", "mining as", "identity", beneficiaryID)
	}

	// A peer registry is the ordered collection of known nodes in the
	// network so transactions and blocks can be shared.
	knownPeers := peer.NewRegistry()
	for _, address := range cfg.Node.KnownPeers {
		pr, err := peer.New(address)
		if err != nil {
			return fmt.Errorf("registering peer %q: %w", address, err)
		}
		knownPeers.Add(pr)
	}

	// The blockchain packages accept a function of this signature to
	// allow the application to log. These raw messages are also sent to
	// any websocket client connected through the events package.
	evts := events.New()
	defer evts.Shutdown()

	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	if cfg.Node.Difficulty != verify.NetworkDifficulty {
		log.Infow("startup", "status", "WARNING: mining difficulty differs from network validation difficulty",
			"mining", cfg.Node.Difficulty, "network", verify.NetworkDifficulty)
	}

	// The state value represents the chain engine for this node and
	// manages the chain, the pool, and the peer registry.
	st, err := state.New(state.Config{
		BeneficiaryID: beneficiaryID,
		ChainID:       uuid.New(),
		Host:          fmt.Sprintf("http://%s", cfg.Web.PrivateHost),
		Difficulty:    cfg.Node.Difficulty,
		KnownPeers:    knownPeers,
		Client:        nodeclient.New(),
		Verifier:      signature.Verifier{},
		EvHandler:     ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// The worker package implements the background workflows such as
	// mining, transaction sharing, and consensus sweeps. The worker
	// registers itself with the state.
	worker.Run(st, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, handlers.DebugMux(build, log)); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from
	// the OS. Use a buffered channel because the signal package requires.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect the
	// error.
	serverErrors := make(chan error, 2)

	// =========================================================================
	// Start Public Service

	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
	})

	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
	}

	go func() {
		log.Infow("startup", "status", "public router started", "host", public.Addr)
		defer log.Infow("shutdown", "status", "public router closed", "host", public.Addr)

		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	privateMux := handlers.PrivateMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
	})

	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      privateMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
	}

	go func() {
		log.Infow("startup", "status", "private router started", "host", private.Addr)
		defer log.Infow("shutdown", "status", "private router closed", "host", private.Addr)

		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}

		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}
	}

	return nil
}
