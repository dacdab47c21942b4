// Package config decodes the node's recognized options (spec §6) from a
// TOML file layered under CLI flags, plus environment variables for
// per-chain RPC endpoints. Grounded on cmd/gprobe/config.go's
// tomlSettings/naoina-toml pattern and gopkg.in/urfave/cli.v1 flag style.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/naoina/toml"

	"github.com/mintpool-net/premintpool/control"
)

// Config mirrors spec §6's "Configuration (recognized options)" exactly.
type Config struct {
	Seed              uint8    `toml:"seed"`
	PeerPort          uint16   `toml:"peer_port"`
	InitialNetworkIP  string   `toml:"initial_network_ip"`
	NodeID            string   `toml:"node_id"`
	TrustedPeers      []string `toml:"trusted_peers"`
	ChainInclusionMode string  `toml:"chain_inclusion_mode"`
	SupportedChains   []uint64 `toml:"supported_chains"`

	// StoreDSN is an ambient addition: where SQLStore persists to. Not part
	// of spec §6's table but needed to actually run a node.
	StoreDSN string `toml:"store_dsn"`
}

// tomlSettings keeps TOML keys equal to the struct's tag names, the same
// customization cmd/gprobe/config.go applies.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("config: field %q is not defined in %s", field, rt.String())
	},
}

// Load decodes path as TOML into a Config with defaults pre-applied.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()
	if err := tomlSettings.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the zero-value-safe baseline before a TOML file or flags
// are applied.
func Default() Config {
	return Config{
		PeerPort:           30303,
		InitialNetworkIP:   "0.0.0.0",
		ChainInclusionMode: string(control.ModeCheck),
	}
}

// InclusionMode parses ChainInclusionMode into the control package's typed
// enum, rejecting anything outside {Check, Verify, Trust} (spec §6).
func (c Config) InclusionMode() (control.InclusionMode, error) {
	switch control.InclusionMode(c.ChainInclusionMode) {
	case control.ModeCheck, control.ModeVerify, control.ModeTrust:
		return control.InclusionMode(c.ChainInclusionMode), nil
	default:
		return "", fmt.Errorf("%w: chain_inclusion_mode %q", control.ErrConfigInvalid, c.ChainInclusionMode)
	}
}

// ChainRPCEndpoints resolves CHAIN_<id>_RPC_WSS for every configured
// SupportedChains entry (spec §6). Every supported chain MUST have its
// variable set.
func (c Config) ChainRPCEndpoints() (map[uint64]string, error) {
	out := make(map[uint64]string, len(c.SupportedChains))
	for _, id := range c.SupportedChains {
		key := fmt.Sprintf("CHAIN_%d_RPC_WSS", id)
		val, ok := os.LookupEnv(key)
		if !ok || val == "" {
			return nil, fmt.Errorf("%w: missing environment variable %s for supported chain %d", control.ErrConfigInvalid, key, id)
		}
		out[id] = val
	}
	return out, nil
}

// Validate applies the cross-field checks the TOML decoder alone can't:
// inclusion mode is one of the known three, and peer_port is non-zero.
func (c Config) Validate() error {
	if _, err := c.InclusionMode(); err != nil {
		return err
	}
	if c.PeerPort == 0 {
		return fmt.Errorf("%w: peer_port must be non-zero", control.ErrConfigInvalid)
	}
	return nil
}

// ListenAddr formats InitialNetworkIP/PeerPort as a dialable address.
func (c Config) ListenAddr() string {
	return c.InitialNetworkIP + ":" + strconv.Itoa(int(c.PeerPort))
}
