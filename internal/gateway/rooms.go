package gateway

import "sync"

// RoomTable maps conversation rooms to the connections joined to them.
// Join is idempotent and there is no per-room leave: a connection's
// memberships are discarded wholesale when it disconnects.
type RoomTable struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Client // roomId -> connId -> client
	conns map[string]map[string]bool    // connId -> roomId set
}

// NewRoomTable creates a new RoomTable
func NewRoomTable() *RoomTable {
	return &RoomTable{
		rooms: make(map[string]map[string]*Client),
		conns: make(map[string]map[string]bool),
	}
}

// Join adds a connection to a room. Joining a room the connection is
// already in changes nothing.
func (t *RoomTable) Join(roomId string, client *Client) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, exists := t.rooms[roomId]
	if !exists {
		room = make(map[string]*Client)
		t.rooms[roomId] = room
	}
	room[client.ConnId] = client

	memberships, exists := t.conns[client.ConnId]
	if !exists {
		memberships = make(map[string]bool)
		t.conns[client.ConnId] = memberships
	}
	memberships[roomId] = true
}

// Members returns a copy of the connections currently in a room
func (t *RoomTable) Members(roomId string) []*Client {
	t.mu.RLock()
	defer t.mu.RUnlock()

	room, exists := t.rooms[roomId]
	if !exists {
		return nil
	}

	members := make([]*Client, 0, len(room))
	for _, client := range room {
		members = append(members, client)
	}
	return members
}

// InRoom checks whether a connection has joined a room
func (t *RoomTable) InRoom(roomId, connId string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	room, exists := t.rooms[roomId]
	return exists && room[connId] != nil
}

// DropConnection removes a connection from every room it joined
func (t *RoomTable) DropConnection(connId string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	memberships, exists := t.conns[connId]
	if !exists {
		return
	}

	for roomId := range memberships {
		room, ok := t.rooms[roomId]
		if !ok {
			continue
		}
		delete(room, connId)
		if len(room) == 0 {
			delete(t.rooms, roomId)
		}
	}
	delete(t.conns, connId)
}

// RoomCount returns the number of rooms with at least one connection
func (t *RoomTable) RoomCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms)
}
