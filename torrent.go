package ltep

import (
	"net/netip"

	"github.com/anacrolix/torrent/metainfo"
)

// The torrent a peer connection belongs to. Messages only need its identity, but a torrent can
// implement the optional interfaces below to receive the effects of particular messages.
type Torrent interface {
	InfoHash() metainfo.Hash
}

// Receives peers learned through ut_pex.
type PexPeerAdder interface {
	AddPexPeers(from *Peer, added []PexPeer, dropped []netip.AddrPort)
}

// Receives the metadata_size from extended handshakes.
type MetadataSizeSetter interface {
	SetMetadataSize(from *Peer, size int) error
}

// Receives ut_metadata requests, pieces and rejections.
type MetadataPieceHandler interface {
	GotMetadataMessage(from *Peer, msg *MetadataMessage) error
}

// Receives ut_holepunch messages.
type HolepunchHandler interface {
	GotHolepunchMessage(from *Peer, msg HolepunchMsg) error
}

// A Torrent that is only an infohash.
type InfoHashTorrent metainfo.Hash

func (me InfoHashTorrent) InfoHash() metainfo.Hash {
	return metainfo.Hash(me)
}
