package ltep

import (
	"fmt"
	"math"

	"github.com/anacrolix/torrent/bencode"
	"github.com/dustin/go-humanize"
)

// http://www.bittorrent.org/beps/bep_0009.html
type MetadataMsgType int

const (
	MetadataRequest MetadataMsgType = iota
	MetadataData
	MetadataReject
)

func (me MetadataMsgType) String() string {
	switch me {
	case MetadataRequest:
		return "request"
	case MetadataData:
		return "data"
	case MetadataReject:
		return "reject"
	default:
		return fmt.Sprintf("unknown %d", int(me))
	}
}

// A ut_metadata message. Data messages carry the piece bytes after the bencoded dictionary.
type MetadataMessage struct {
	ID    ExtensionNumber
	Type  MetadataMsgType
	Piece int
	// Only for data messages.
	TotalSize int
	Data      []byte

	peer    *Peer
	torrent Torrent
}

var _ Message = (*MetadataMessage)(nil)

func (m *MetadataMessage) ExtensionMessageID() ExtensionNumber {
	return m.ID
}

func (m *MetadataMessage) ExtensionName() ExtensionName {
	return ExtensionNameMetadata
}

func (m *MetadataMessage) Payload() ([]byte, error) {
	d := map[string]int64{
		"msg_type": int64(m.Type),
		"piece":    int64(m.Piece),
	}
	if m.Type == MetadataData {
		d["total_size"] = int64(m.TotalSize)
	}
	b, err := bencode.Marshal(d)
	if err != nil {
		return nil, err
	}
	return append(b, m.Data...), nil
}

func (m *MetadataMessage) DoReceivedAction() error {
	h, ok := m.torrent.(MetadataPieceHandler)
	if !ok {
		return nil
	}
	return h.GotMetadataMessage(m.peer, m)
}

func (m *MetadataMessage) String() string {
	s := fmt.Sprintf("%s id=%d %v piece=%d", ExtensionNameMetadata, m.ID, m.Type, m.Piece)
	if m.Type == MetadataData {
		s += fmt.Sprintf(
			" data=%s total=%s",
			humanize.Bytes(uint64(len(m.Data))),
			humanize.Bytes(uint64(m.TotalSize)))
	}
	return s
}

func decodeMetadata(id ExtensionNumber, b []byte, peer *Peer, t Torrent) (Message, error) {
	const ext = ExtensionNameMetadata
	d, rest, err := decodeDictPrefix(ext, b)
	if err != nil {
		return nil, err
	}
	m := &MetadataMessage{ID: id, peer: peer, torrent: t}
	msgType, ok, err := dictInt(ext, d, "msg_type", int64(MetadataRequest), int64(MetadataReject))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, malformedf(ext, "msg_type", "missing")
	}
	m.Type = MetadataMsgType(msgType)
	piece, ok, err := dictInt(ext, d, "piece", 0, math.MaxInt32)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, malformedf(ext, "piece", "missing")
	}
	m.Piece = int(piece)
	if m.Type != MetadataData {
		if len(rest) != 0 {
			return nil, malformedf(ext, "", "%d trailing bytes after %v message", len(rest), m.Type)
		}
		return m, nil
	}
	totalSize, ok, err := dictInt(ext, d, "total_size", 0, math.MaxInt32)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, malformedf(ext, "total_size", "missing from data message")
	}
	m.TotalSize = int(totalSize)
	m.Data = rest
	return m, nil
}
