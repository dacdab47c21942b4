package mintcheck_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintpool-net/premintpool/chain"
	"github.com/mintpool-net/premintpool/common"
	"github.com/mintpool-net/premintpool/control"
	"github.com/mintpool-net/premintpool/crypto"
	"github.com/mintpool-net/premintpool/mintcheck"
	"github.com/mintpool-net/premintpool/premint"
	"github.com/mintpool-net/premintpool/premint/simplemint"
)

type unsupportedPremint struct{ simplemint.V1 }

func (unsupportedPremint) CheckFilter(uint64) (premint.Filter, bool) { return premint.Filter{}, false }

func TestChecker_UnsupportedKindIsFatal(t *testing.T) {
	pool := chain.NewPool(chain.Endpoints{})
	commands := make(chan control.Command, 1)
	c := mintcheck.New(8453, &unsupportedPremint{}, pool, commands)

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, mintcheck.ErrUnsupportedKind)
}

// fakeSubscribeServer accepts an eth_subscribe call and pushes a single log
// notification, enough to exercise the checker's map-claim-and-forward path.
func fakeSubscribeServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var req map[string]any
		require.NoError(t, conn.ReadJSON(&req))
		require.NoError(t, conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0", "id": req["id"], "result": "0xsub1",
		}))

		topic0 := crypto.Keccak256Hash([]byte("SimpleMinted(address,uint256)")).Hex()
		addrTopic := "0x000000000000000000000000" + strings.Repeat("33", 20)
		require.NoError(t, conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"method":  "eth_subscription",
			"params": map[string]any{
				"subscription": "0xsub1",
				"result": map[string]any{
					"address":         "0x0000000000000000000000000000000000ef01",
					"topics":          []string{topic0, addrTopic},
					"data":            "0x0000000000000000000000000000000000000000000000000000000000000005",
					"transactionHash": "0x" + strings.Repeat("ab", 32),
					"blockNumber":     "0x10",
					"logIndex":        "0x2",
				},
			},
		}))

		// keep the connection open until the test closes it
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestChecker_MapsLogsToResolveOnchainMint(t *testing.T) {
	srv := fakeSubscribeServer(t)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	pool := chain.NewPool(chain.Endpoints{8453: wsURL})
	defer pool.Reconnect(8453)

	v := &simplemint.V1{FactoryAddress: common.HexToAddress("0x0000000000000000000000000000000000ef01")}
	commands := make(chan control.Command, 4)
	c := mintcheck.New(8453, v, pool, commands)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go c.Run(ctx)

	select {
	case cmd := <-commands:
		resolve, ok := cmd.(control.ResolveOnchainMint)
		require.True(t, ok)
		assert.Equal(t, uint64(8453), resolve.Claim.ChainID)
		assert.Equal(t, simplemint.Kind, resolve.Claim.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a mapped claim")
	}
}
