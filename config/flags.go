package config

import (
	"gopkg.in/urfave/cli.v1"
)

// Flags are the CLI overlay for Config, named after the same TOML keys, in
// the style of cmd/gprobe/main.go's flag declarations.
var Flags = []cli.Flag{
	cli.StringFlag{Name: "config", Usage: "TOML configuration file"},
	cli.IntFlag{Name: "seed", Usage: "byte-0 of the node's 32-byte ed25519 seed"},
	cli.IntFlag{Name: "peer-port", Usage: "gossip transport listen port"},
	cli.StringFlag{Name: "initial-network-ip", Usage: "gossip transport listen address"},
	cli.StringFlag{Name: "node-id", Usage: "tag attached to every structured log line"},
	cli.StringFlag{Name: "chain-inclusion-mode", Usage: "check | verify | trust"},
	cli.StringFlag{Name: "store-dsn", Usage: "sqlite DSN, or \":memory:\""},
}

// ApplyFlags overlays any explicitly-set CLI flags onto cfg, flags taking
// precedence over the TOML file (matching cmd/gprobe's layering order).
func ApplyFlags(cfg Config, c *cli.Context) Config {
	if c.IsSet("seed") {
		cfg.Seed = uint8(c.Int("seed"))
	}
	if c.IsSet("peer-port") {
		cfg.PeerPort = uint16(c.Int("peer-port"))
	}
	if c.IsSet("initial-network-ip") {
		cfg.InitialNetworkIP = c.String("initial-network-ip")
	}
	if c.IsSet("node-id") {
		cfg.NodeID = c.String("node-id")
	}
	if c.IsSet("chain-inclusion-mode") {
		cfg.ChainInclusionMode = c.String("chain-inclusion-mode")
	}
	if c.IsSet("store-dsn") {
		cfg.StoreDSN = c.String("store-dsn")
	}
	return cfg
}
