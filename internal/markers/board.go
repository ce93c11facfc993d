package markers

import "sync"

// Marker is one rendered marker as exposed to the map shell.
type Marker struct {
	ID         string     `json:"id"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Appearance Appearance `json:"appearance"`
}

// Board is the Renderer backing the HTTP shell: it keeps the marker set as
// plain data for the shell to poll and turns marker clicks into identifier
// events on a channel.
type Board struct {
	mu      sync.RWMutex
	markers map[string]*Marker
	clicks  chan string
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		markers: make(map[string]*Marker),
		clicks:  make(chan string, 16),
	}
}

func (b *Board) PlaceMarker(id string, lat, lon float64, app Appearance) Handle {
	m := &Marker{ID: id, Latitude: lat, Longitude: lon, Appearance: app}
	b.mu.Lock()
	b.markers[id] = m
	b.mu.Unlock()
	return m
}

func (b *Board) UpdateAppearance(h Handle, app Appearance) {
	m, ok := h.(*Marker)
	if !ok {
		return
	}
	b.mu.Lock()
	m.Appearance = app
	b.mu.Unlock()
}

func (b *Board) RemoveMarker(h Handle) {
	m, ok := h.(*Marker)
	if !ok {
		return
	}
	b.mu.Lock()
	delete(b.markers, m.ID)
	b.mu.Unlock()
}

// Snapshot returns a copy of the current marker set.
func (b *Board) Snapshot() []Marker {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Marker, 0, len(b.markers))
	for _, m := range b.markers {
		out = append(out, *m)
	}
	return out
}

// Click records a marker click. Returns false for an unknown marker or
// when the click buffer is full (the click is dropped, not blocked on).
func (b *Board) Click(id string) bool {
	b.mu.RLock()
	_, ok := b.markers[id]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case b.clicks <- id:
		return true
	default:
		return false
	}
}

// Clicks is the stream of clicked marker identifiers.
func (b *Board) Clicks() <-chan string {
	return b.clicks
}
