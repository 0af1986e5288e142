package ltep

import (
	"net/netip"

	"github.com/anacrolix/torrent/metainfo"
)

// Records the effects messages have on a torrent.
type testTorrent struct {
	infoHash     metainfo.Hash
	added        []PexPeer
	dropped      []netip.AddrPort
	metadataSize int
	metadataMsgs []*MetadataMessage
	holepunches  []HolepunchMsg
}

func (tt *testTorrent) InfoHash() metainfo.Hash {
	return tt.infoHash
}

func (tt *testTorrent) AddPexPeers(from *Peer, added []PexPeer, dropped []netip.AddrPort) {
	tt.added = append(tt.added, added...)
	tt.dropped = append(tt.dropped, dropped...)
}

func (tt *testTorrent) SetMetadataSize(from *Peer, size int) error {
	tt.metadataSize = size
	return nil
}

func (tt *testTorrent) GotMetadataMessage(from *Peer, msg *MetadataMessage) error {
	tt.metadataMsgs = append(tt.metadataMsgs, msg)
	return nil
}

func (tt *testTorrent) GotHolepunchMessage(from *Peer, msg HolepunchMsg) error {
	tt.holepunches = append(tt.holepunches, msg)
	return nil
}

func newTestPeer() *Peer {
	return NewPeer(netip.MustParseAddrPort("192.168.0.1:6969"))
}

func compactAddr(s string) string {
	ap := netip.MustParseAddrPort(s)
	b := ap.Addr().AsSlice()
	return string(append(b, byte(ap.Port()>>8), byte(ap.Port())))
}

// A ut_pex payload with two added and two dropped IPv4 peers.
func testPexPayload() string {
	return "d5:added12:" +
		compactAddr("192.168.0.1:6881") + compactAddr("10.1.1.2:9999") +
		"7:added.f2:20" +
		"7:dropped12:" +
		compactAddr("192.168.0.2:6882") + compactAddr("10.1.1.3:10000") +
		"e"
}
