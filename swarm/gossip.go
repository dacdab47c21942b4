package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mintpool-net/premintpool/crypto"
	"github.com/mintpool-net/premintpool/plog"
	"github.com/mintpool-net/premintpool/premint"
)

// GossipSwarm is the concrete Swarm: a WebSocket listener accepting inbound
// peers plus an outbound dialer for configured addresses, flooding gossip
// messages to every connected peer exactly once per message (deduped by a
// bounded LRU of recently seen message digests, the same flood-dedup shape
// devp2p's whisper/gossipsub layers use).
type GossipSwarm struct {
	identity crypto.NodeIdentity
	log      plog.Logger

	listenAddr string
	listener   net.Listener

	commands chan Command
	events   chan Event

	mu    sync.Mutex
	peers map[string]*peerConn

	seen *lru.Cache

	closeOnce sync.Once
	done      chan struct{}
}

type peerConn struct {
	id   uuid.UUID
	addr string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (p *peerConn) send(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteJSON(v)
}

const seenCacheSize = 4096

// NewGossipSwarm starts listening on listenAddr (host:port, spec §6's
// initial_network_ip + peer_port) and returns a Swarm ready to drive.
func NewGossipSwarm(identity crypto.NodeIdentity, listenAddr string) (*GossipSwarm, error) {
	seen, err := lru.New(seenCacheSize)
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("swarm: listening on %s: %w", listenAddr, err)
	}
	g := &GossipSwarm{
		identity:   identity,
		log:        plog.New("component", "swarm", "peerId", identity.PeerID()),
		listenAddr: listenAddr,
		listener:   ln,
		commands:   make(chan Command, 1024),
		events:     make(chan Event, 1024),
		peers:      make(map[string]*peerConn),
		seen:       seen,
		done:       make(chan struct{}),
	}
	go g.acceptLoop()
	go g.commandLoop()
	return g, nil
}

func (g *GossipSwarm) Commands() chan<- Command { return g.commands }
func (g *GossipSwarm) Events() <-chan Event      { return g.events }

func (g *GossipSwarm) Close() error {
	g.closeOnce.Do(func() {
		close(g.done)
		g.listener.Close()
		g.mu.Lock()
		for _, p := range g.peers {
			p.conn.Close()
		}
		g.mu.Unlock()
		close(g.events)
	})
	return nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

func (g *GossipSwarm) acceptLoop() {
	mux := http.NewServeMux()
	mux.HandleFunc("/gossip", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			g.log.Warn("swarm: upgrade failed", "err", err)
			return
		}
		g.adoptPeer(r.RemoteAddr, conn)
	})
	srv := &http.Server{Handler: mux}
	if err := srv.Serve(g.listener); err != nil && err != http.ErrServerClosed {
		g.log.Warn("swarm: listener stopped", "err", err)
	}
}

func (g *GossipSwarm) adoptPeer(addr string, conn *websocket.Conn) {
	pc := &peerConn{id: uuid.New(), addr: addr, conn: conn}
	g.mu.Lock()
	g.peers[addr] = pc
	names := g.peerNames()
	g.mu.Unlock()

	g.log.Debug("swarm: peer connected", "peer", pc.addr, "connId", pc.id)
	g.emit(NetworkStateEvent{State: NetworkState{LocalPeerID: g.identity.PeerID(), Peers: names}})
	go g.readLoop(pc)
}

func (g *GossipSwarm) peerNames() []string {
	names := make([]string, 0, len(g.peers))
	for a := range g.peers {
		names = append(names, a)
	}
	return names
}

func (g *GossipSwarm) readLoop(pc *peerConn) {
	defer func() {
		g.mu.Lock()
		if cur, ok := g.peers[pc.addr]; ok && cur.id == pc.id {
			delete(g.peers, pc.addr)
		}
		g.mu.Unlock()
		pc.conn.Close()
	}()
	for {
		var msg premint.GossipMessage
		if err := pc.conn.ReadJSON(&msg); err != nil {
			g.log.Warn("swarm: peer read failed, dropping", "peer", pc.addr, "err", err)
			return
		}
		g.handleInbound(msg, pc.addr)
	}
}

func (g *GossipSwarm) handleInbound(msg premint.GossipMessage, from string) {
	digest := string(crypto.Keccak256(mustJSON(msg)))
	if _, ok := g.seen.Get(digest); ok {
		return // already processed/rebroadcast this message
	}
	g.seen.Add(digest, struct{}{})

	switch msg.Type {
	case premint.MessagePremint:
		p, err := premint.DecodePremint(msg)
		if err != nil {
			g.log.Warn("swarm: malformed premint on wire", "err", err)
			return
		}
		g.emit(PremintReceived{Premint: p})
	case premint.MessageOnchainClaim:
		if msg.Claim != nil {
			g.emit(MintSeenOnchain{Claim: premint.PeerInclusionClaim{FromPeerID: "unknown", Claim: *msg.Claim}})
		}
	}
	g.floodExcept(msg, from)
}

func (g *GossipSwarm) emit(e Event) {
	select {
	case g.events <- e:
	case <-g.done:
	}
}

func (g *GossipSwarm) commandLoop() {
	for {
		select {
		case cmd, ok := <-g.commands:
			if !ok {
				return
			}
			g.handleCommand(cmd)
		case <-g.done:
			return
		}
	}
}

func (g *GossipSwarm) handleCommand(cmd Command) {
	switch c := cmd.(type) {
	case ConnectToPeer:
		go g.dial(c.Address)
	case AnnounceSelf:
		// No directory service wired in; peers discover each other only
		// through configured addresses and trusted-bootnodes lookup.
	case ReturnNetworkState:
		g.mu.Lock()
		state := NetworkState{LocalPeerID: g.identity.PeerID(), Peers: g.peerNames()}
		g.mu.Unlock()
		trySend(c.Reply, state)
	case ReturnNodeInfo:
		trySend(c.Reply, NodeInfo{PeerID: g.identity.PeerID(), ListenAddrs: []string{g.listenAddr}})
	case Broadcast:
		msg, err := premint.EncodePremint(c.Premint)
		if err != nil {
			g.log.Warn("swarm: failed to encode premint for broadcast", "err", err)
			return
		}
		g.floodExcept(msg, "")
	case SendOnchainMintFound:
		g.floodExcept(premint.EncodeClaim(c.Claim), "")
	}
}

// floodExcept sends msg to every connected peer other than the one named by
// except (the peer it was just received from, to avoid an immediate
// bounce — dedup via the seen cache handles the rest).
func (g *GossipSwarm) floodExcept(msg premint.GossipMessage, except string) {
	g.mu.Lock()
	conns := make([]*peerConn, 0, len(g.peers))
	for addr, p := range g.peers {
		if addr == except {
			continue
		}
		conns = append(conns, p)
	}
	g.mu.Unlock()

	for _, p := range conns {
		if err := p.send(msg); err != nil {
			g.log.Warn("swarm: send to peer failed", "peer", p.addr, "err", err)
		}
	}
}

func (g *GossipSwarm) dial(addr string) {
	url := "ws://" + addr + "/gossip"
	conn, _, err := websocket.DefaultDialer.DialContext(context.Background(), url, nil)
	if err != nil {
		g.log.Warn("swarm: dial failed", "addr", addr, "err", err)
		return
	}
	g.adoptPeer(addr, conn)
}

func trySend[T any](reply chan<- T, v T) {
	select {
	case reply <- v:
	default:
		// Reply channel has no ready receiver (closed or dropped); per
		// spec §5, treat send-to-closed-oneshot as a logged warning, never
		// fatal.
		plog.Warn("swarm: reply channel not ready, dropping reply")
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
