// Command premintpoolkey generates and inspects the keys a premint-pool
// node needs: the secp256k1 signing key creators use to sign premints, and
// the node's gossip-transport identity derived from its configured seed
// byte. Grounded on cmd/probekey's generate/inspect subcommand shape.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/urfave/cli.v1"

	"github.com/mintpool-net/premintpool/crypto"
)

func main() {
	app := cli.NewApp()
	app.Name = "premintpoolkey"
	app.Usage = "generate and inspect premint-pool keys"
	app.Commands = []cli.Command{
		generateCommand,
		inspectCommand,
		nodeIdentityCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var generateCommand = cli.Command{
	Name:   "generate",
	Usage:  "generate a new secp256k1 signing key",
	Action: generateKey,
}

func generateKey(_ *cli.Context) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	fmt.Printf("address:     %s\n", addr.Hex())
	fmt.Printf("private key: %s\n", hex.EncodeToString(crypto.FromECDSA(key)))
	return nil
}

var inspectCommand = cli.Command{
	Name:      "inspect",
	Usage:     "print the address for a hex-encoded private key",
	ArgsUsage: "<hex private key>",
	Action:    inspectKey,
}

func inspectKey(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("premintpoolkey: inspect requires exactly one argument")
	}
	key, err := crypto.HexToECDSA(c.Args().Get(0))
	if err != nil {
		return fmt.Errorf("premintpoolkey: %w", err)
	}
	fmt.Println(crypto.PubkeyToAddress(key.PublicKey).Hex())
	return nil
}

var nodeIdentityCommand = cli.Command{
	Name:      "node-identity",
	Usage:     "print the gossip-transport peer id for a seed byte",
	ArgsUsage: "<seed byte 0-255>",
	Action:    nodeIdentity,
}

func nodeIdentity(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("premintpoolkey: node-identity requires exactly one argument")
	}
	n, err := strconv.Atoi(c.Args().Get(0))
	if err != nil || n < 0 || n > 255 {
		return fmt.Errorf("premintpoolkey: seed byte must be 0-255")
	}
	id := crypto.NewNodeIdentity(byte(n))
	fmt.Println(id.PeerID())
	return nil
}
