package server

import (
	"context"
	"sync"

	"github.com/coder/websocket"

	"cardroom-server/internal/game"
)

// wsPeer adapts a websocket to session.Peer.
type wsPeer struct {
	id   string
	conn *websocket.Conn
}

func (p *wsPeer) ID() string {
	return p.id
}

func (p *wsPeer) Send(ctx context.Context, data []byte) error {
	return p.conn.Write(ctx, websocket.MessageText, data)
}

// Close drops the socket without a close handshake; it is called while a
// room lock is held.
func (p *wsPeer) Close() {
	if p.conn != nil {
		p.conn.CloseNow()
	}
}

// PlayerConnection records where a socket has joined, once it has.
type PlayerConnection struct {
	RoomID string
	Seat   game.Seat
}

type ConnectionManager struct {
	connections map[string]*wsPeer          // connectionID → socket
	players     map[string]PlayerConnection // connectionID → seat info
	mu          sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*wsPeer),
		players:     make(map[string]PlayerConnection),
	}
}

func (cm *ConnectionManager) AddConnection(id string, peer *wsPeer) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[id] = peer
}

func (cm *ConnectionManager) RemoveConnection(id string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.connections, id)
	delete(cm.players, id)
}

// MapPlayer records the room and seat a connection said hello as.
func (cm *ConnectionManager) MapPlayer(connectionID string, player PlayerConnection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if _, ok := cm.connections[connectionID]; !ok {
		return
	}
	cm.players[connectionID] = player
}

// GetPlayer returns the seat info for a connection.
func (cm *ConnectionManager) GetPlayer(connectionID string) (PlayerConnection, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	player, ok := cm.players[connectionID]
	return player, ok
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// PlayerCount returns how many connections have said hello.
func (cm *ConnectionManager) PlayerCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.players)
}

// CloseAll closes every socket with the given status and forgets them.
func (cm *ConnectionManager) CloseAll(code websocket.StatusCode, reason string) int {
	cm.mu.Lock()
	peers := make([]*wsPeer, 0, len(cm.connections))
	for _, p := range cm.connections {
		peers = append(peers, p)
	}
	cm.connections = make(map[string]*wsPeer)
	cm.players = make(map[string]PlayerConnection)
	cm.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range peers {
		if p.conn == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.conn.Close(code, reason)
		}()
	}
	wg.Wait()
	return len(peers)
}
