package ltep

import (
	"fmt"
	"net/netip"

	"github.com/anacrolix/sync"
)

// Extension protocol state for a single remote peer connection. It's only mutated by the peer's own
// extended handshakes.
type Peer struct {
	// Identifies the peer in logs. Not used for anything else.
	Addr netip.AddrPort
	// The IDs the peer told us it uses for each extension.
	Extensions ExtensionTable

	// Held for the duration of decoding and acting on a received message. Messages from one peer
	// must be handled strictly in order, as each handshake changes how the next message dispatches.
	receiveMu sync.Mutex

	mu sync.RWMutex
	// The "v" the peer sent. Empty until a handshake is received.
	clientVersion string
	// The "p" the peer sent. 0 means we don't know of a port that accepts connections.
	listenPort uint16
	// The "reqq" the peer sent.
	maxRequests int
}

func NewPeer(addr netip.AddrPort) *Peer {
	return &Peer{Addr: addr}
}

func (p *Peer) SetClientVersion(v string) {
	p.mu.Lock()
	p.clientVersion = v
	p.mu.Unlock()
}

func (p *Peer) ClientVersion() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.clientVersion
}

func (p *Peer) SetListenPort(port uint16) {
	p.mu.Lock()
	p.listenPort = port
	p.mu.Unlock()
}

func (p *Peer) ListenPort() uint16 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.listenPort
}

// Returns the address the peer accepts incoming connections on, if it told us.
func (p *Peer) ListenAddr() (ret netip.AddrPort, ok bool) {
	port := p.ListenPort()
	if port == 0 || !p.Addr.IsValid() {
		return
	}
	return netip.AddrPortFrom(p.Addr.Addr(), port), true
}

func (p *Peer) SetMaxRequests(n int) {
	p.mu.Lock()
	p.maxRequests = n
	p.mu.Unlock()
}

func (p *Peer) MaxRequests() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.maxRequests
}

func (p *Peer) SupportsExtension(name ExtensionName) bool {
	return p.Extensions.IdFor(name).Ok
}

// Frames payload for sending to the peer under the ID it negotiated for name.
func (p *Peer) ExtensionMessage(name ExtensionName, payload []byte) ([]byte, error) {
	id := p.Extensions.IdFor(name)
	if !id.Ok {
		return nil, fmt.Errorf("peer %v does not support extension %q", p.Addr, name)
	}
	return append([]byte{byte(id.Value)}, payload...), nil
}

func (p *Peer) String() string {
	return fmt.Sprintf("peer %v (%q)", p.Addr, p.ClientVersion())
}
