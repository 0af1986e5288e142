package ltep

import (
	"fmt"
	"net/netip"

	"github.com/anacrolix/dht/v2/krpc"
	"github.com/anacrolix/torrent/bencode"
	pp "github.com/anacrolix/torrent/peer_protocol"
)

// A peer announced as added in a PEX message.
type PexPeer struct {
	Addr  netip.AddrPort
	Flags pp.PexPeerFlags
}

// A ut_pex message, sent or received under the ID negotiated for ut_pex.
type PexMessage struct {
	pp.PexMsg
	ID ExtensionNumber

	peer    *Peer
	torrent Torrent
}

var _ Message = (*PexMessage)(nil)

func nodeAddrToAddrPort(na krpc.NodeAddr) (netip.AddrPort, bool) {
	addr, ok := netip.AddrFromSlice(na.IP)
	if !ok {
		return netip.AddrPort{}, false
	}
	return netip.AddrPortFrom(addr.Unmap(), uint16(na.Port)), true
}

func appendPexPeers(ret []PexPeer, nas []krpc.NodeAddr, fs []pp.PexPeerFlags) []PexPeer {
	for i, na := range nas {
		ap, ok := nodeAddrToAddrPort(na)
		if !ok {
			continue
		}
		var f pp.PexPeerFlags
		if i < len(fs) {
			f = fs[i]
		}
		ret = append(ret, PexPeer{Addr: ap, Flags: f})
	}
	return ret
}

// Returns the added peers of both address families, with their flags where given. Addresses that
// don't convert are skipped.
func (m *PexMessage) AddedPeers() (ret []PexPeer) {
	ret = appendPexPeers(ret, m.Added.NodeAddrs(), m.AddedFlags)
	return appendPexPeers(ret, m.Added6.NodeAddrs(), m.Added6Flags)
}

func (m *PexMessage) DroppedAddrs() (ret []netip.AddrPort) {
	for _, nas := range [][]krpc.NodeAddr{m.Dropped.NodeAddrs(), m.Dropped6.NodeAddrs()} {
		for _, na := range nas {
			if ap, ok := nodeAddrToAddrPort(na); ok {
				ret = append(ret, ap)
			}
		}
	}
	return
}

func (m *PexMessage) ExtensionMessageID() ExtensionNumber {
	return m.ID
}

func (m *PexMessage) ExtensionName() ExtensionName {
	return ExtensionNamePex
}

func (m *PexMessage) Payload() ([]byte, error) {
	return bencode.Marshal(m.PexMsg)
}

// Hands the peers to the torrent, if it wants them.
func (m *PexMessage) DoReceivedAction() error {
	adder, ok := m.torrent.(PexPeerAdder)
	if !ok {
		return nil
	}
	pexPeersReceived.Add(int64(len(m.Added) + len(m.Added6)))
	adder.AddPexPeers(m.peer, m.AddedPeers(), m.DroppedAddrs())
	return nil
}

func (m *PexMessage) String() string {
	return fmt.Sprintf(
		"%s id=%d added=%d added6=%d dropped=%d dropped6=%d",
		ExtensionNamePex, m.ID, len(m.Added), len(m.Added6), len(m.Dropped), len(m.Dropped6))
}

func decodePex(id ExtensionNumber, b []byte, peer *Peer, t Torrent) (Message, error) {
	m := &PexMessage{ID: id, peer: peer, torrent: t}
	if err := bencode.Unmarshal(b, &m.PexMsg); err != nil {
		return nil, malformed(ExtensionNamePex, "", err)
	}
	return m, nil
}
