// Command premintpoold runs a premint-pool node: Controller, MintCheckers,
// Swarm gossip transport and the admin HTTP API, wired together and driven
// until interrupted. Grounded on cmd/gprobe's cli.v1 App/flags shape
// (cmd/gprobe/config.go's configFileFlag and tomlSettings).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/urfave/cli.v1"

	"github.com/mintpool-net/premintpool/chain"
	"github.com/mintpool-net/premintpool/config"
	"github.com/mintpool-net/premintpool/control"
	"github.com/mintpool-net/premintpool/crypto"
	"github.com/mintpool-net/premintpool/internal/premintapi"
	"github.com/mintpool-net/premintpool/mintcheck"
	"github.com/mintpool-net/premintpool/plog"
	"github.com/mintpool-net/premintpool/premint"
	_ "github.com/mintpool-net/premintpool/premint/simplemint"
	_ "github.com/mintpool-net/premintpool/premint/zoracreator"
	"github.com/mintpool-net/premintpool/rules"
	"github.com/mintpool-net/premintpool/store"
	"github.com/mintpool-net/premintpool/swarm"
)

func main() {
	app := cli.NewApp()
	app.Name = "premintpoold"
	app.Usage = "premint-pool gossip node"
	app.Flags = config.Flags
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
	}
	cfg = config.ApplyFlags(cfg, c)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := plog.New("nodeId", cfg.NodeID)
	plog.SetRoot(log)

	mode, err := cfg.InclusionMode()
	if err != nil {
		return err
	}

	endpoints, err := cfg.ChainRPCEndpoints()
	if err != nil {
		return err
	}
	pool := chain.NewPool(endpoints)

	dsn := cfg.StoreDSN
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := store.OpenSQLStore(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	identity := crypto.NewNodeIdentity(cfg.Seed)
	gossip, err := swarm.NewGossipSwarm(identity, cfg.ListenAddr())
	if err != nil {
		return err
	}
	defer gossip.Close()

	ctrl := control.New(control.Config{
		Store:           db,
		Rules:           rules.New(rules.Defaults()...),
		Chains:          pool,
		Swarm:           gossip,
		InclusionMode:   mode,
		TrustedPeers:    cfg.TrustedPeers,
		SupportedChains: cfg.SupportedChains,
		Logger:          log.With("component", "controller"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ctrl.Run(ctx)

	if mode == control.ModeCheck {
		startMintCheckers(ctx, cfg.SupportedChains, pool, ctrl.Commands(), log)
	}

	for _, addr := range cfg.TrustedPeers {
		ctrl.Commands() <- control.ConnectToPeer{Address: addr}
	}

	server := premintapi.New(ctrl.Commands())
	httpSrv := &http.Server{Addr: "127.0.0.1:8090", Handler: server}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("premintpoold: admin API stopped", "err", err)
		}
	}()
	defer httpSrv.Close()

	log.Info("premintpoold: node started", "peerId", identity.PeerID(), "listenAddr", cfg.ListenAddr())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("premintpoold: shutting down")
	return nil
}

// startMintCheckers launches one Checker per (chain, registered kind) pair
// that actually supports on-chain checking there (spec §4.2).
func startMintCheckers(ctx context.Context, chains []uint64, pool *chain.Pool, commands chan<- control.Command, log plog.Logger) {
	for _, chainID := range chains {
		for _, kindTag := range premint.Kinds() {
			p, ok := premint.New(kindTag)
			if !ok {
				continue
			}
			if _, supported := p.CheckFilter(chainID); !supported {
				continue
			}
			checker := mintcheck.New(chainID, p, pool, commands)
			go func(chk *mintcheck.Checker, chainID uint64, kind string) {
				if err := chk.Run(ctx); err != nil {
					log.Warn("premintpoold: mint checker exited", "chainId", chainID, "kind", kind, "err", err)
				}
			}(checker, chainID, kindTag)
		}
	}
}
