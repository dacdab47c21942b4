package bootnode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintpool-net/premintpool/bootnode"
	"github.com/mintpool-net/premintpool/chain"
	"github.com/mintpool-net/premintpool/common"
)

// encodedMultiaddrData ABI-encodes a single `string` return/log payload the
// way solidity does: offset word, length word, UTF-8 bytes padded to 32.
func encodedMultiaddrData(s string) string {
	const hexdigits = "0123456789abcdef"
	pad := func(n int) string {
		out := make([]byte, 64)
		for i := range out {
			out[i] = '0'
		}
		hx := []byte{}
		for n > 0 {
			hx = append([]byte{hexdigits[n%16]}, hx...)
			n /= 16
		}
		copy(out[64-len(hx):], hx)
		return string(out)
	}
	body := []byte(s)
	paddedLen := ((len(body) + 31) / 32) * 32
	bodyHex := make([]byte, paddedLen*2)
	for i := range bodyHex {
		bodyHex[i] = '0'
	}
	for i, c := range body {
		hi, lo := hexdigits[c>>4], hexdigits[c&0xf]
		bodyHex[i*2] = hi
		bodyHex[i*2+1] = lo
	}
	return "0x" + pad(32) + pad(len(body)) + string(bodyHex)
}

func fakeBootnodeServer(t *testing.T, trusted map[string]bool) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		for {
			var req map[string]any
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			id := req["id"]
			switch req["method"] {
			case "eth_getLogs":
				addrTopic := "0x000000000000000000000000" + strings.Repeat("aa", 20)
				conn.WriteJSON(map[string]any{
					"jsonrpc": "2.0", "id": id,
					"result": []map[string]any{
						{
							"address":         "0x0000000000000000000000000000000000bee1",
							"topics":          []string{"0x" + strings.Repeat("11", 32), addrTopic},
							"data":            encodedMultiaddrData("/ip4/127.0.0.1/tcp/9000"),
							"transactionHash": "0x" + strings.Repeat("cc", 32),
							"blockNumber":     "0x5",
							"logIndex":        "0x0",
						},
					},
				})
			case "eth_call":
				result := "0x" + strings.Repeat("00", 31) + "00"
				if trusted[strings.Repeat("aa", 20)] {
					result = "0x" + strings.Repeat("00", 31) + "01"
				}
				conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": id, "result": result})
			default:
				conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": id, "result": nil})
			}
		}
	}))
}

func TestResolve_FiltersToTrustedNodesOnly(t *testing.T) {
	srv := fakeBootnodeServer(t, map[string]bool{strings.Repeat("aa", 20): true})
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	pool := chain.NewPool(chain.Endpoints{8453: wsURL})
	defer pool.Reconnect(8453)

	dir := bootnode.Directory{ChainID: 8453, Contract: common.HexToAddress("0x0000000000000000000000000000000000bee1"), DeployBlock: 0}
	addrs, err := bootnode.Resolve(context.Background(), pool, dir, 100)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "/ip4/127.0.0.1/tcp/9000", addrs[0])
}

func TestResolve_UntrustedCandidateExcluded(t *testing.T) {
	srv := fakeBootnodeServer(t, map[string]bool{})
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	pool := chain.NewPool(chain.Endpoints{8453: wsURL})
	defer pool.Reconnect(8453)

	dir := bootnode.Directory{ChainID: 8453, Contract: common.HexToAddress("0x0000000000000000000000000000000000bee1"), DeployBlock: 0}
	addrs, err := bootnode.Resolve(context.Background(), pool, dir, 100)
	require.NoError(t, err)
	assert.Len(t, addrs, 0)
}
