package swarm

import "sync"

// LoopbackSwarm is an in-process Swarm with no real transport: every
// Broadcast/SendOnchainMintFound command is recorded for inspection rather
// than sent anywhere. Used by the Controller and admin API tests.
type LoopbackSwarm struct {
	commands chan Command
	events   chan Event

	mu   sync.Mutex
	Sent []Command
}

// SentCommands returns a snapshot of every command received so far.
func (l *LoopbackSwarm) SentCommands() []Command {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Command, len(l.Sent))
	copy(out, l.Sent)
	return out
}

func NewLoopbackSwarm() *LoopbackSwarm {
	l := &LoopbackSwarm{
		commands: make(chan Command, 1024),
		events:   make(chan Event, 1024),
	}
	go l.drain()
	return l
}

func (l *LoopbackSwarm) Commands() chan<- Command { return l.commands }
func (l *LoopbackSwarm) Events() <-chan Event      { return l.events }

func (l *LoopbackSwarm) Close() error {
	close(l.commands)
	return nil
}

func (l *LoopbackSwarm) drain() {
	for cmd := range l.commands {
		l.mu.Lock()
		l.Sent = append(l.Sent, cmd)
		l.mu.Unlock()
		switch c := cmd.(type) {
		case ReturnNetworkState:
			trySend(c.Reply, NetworkState{})
		case ReturnNodeInfo:
			trySend(c.Reply, NodeInfo{})
		}
	}
	close(l.events)
}

// Inject pushes an Event as though it arrived from a peer, for test setup.
func (l *LoopbackSwarm) Inject(e Event) {
	l.events <- e
}

var _ Swarm = (*LoopbackSwarm)(nil)
var _ Swarm = (*GossipSwarm)(nil)
