package ltep

import (
	"fmt"
	"math"

	g "github.com/anacrolix/generics"
	"github.com/anacrolix/torrent/bencode"
	"github.com/pkg/errors"
)

// The extended handshake, http://www.bittorrent.org/beps/bep_0010.html. It always has extension ID
// 0, and carries the mapping of extension names to IDs that the sender uses.
type HandshakeMessage struct {
	// "m". IDs are 1-255, 0 is the handshake itself.
	Extensions map[ExtensionName]ExtensionNumber
	// "v"
	ClientVersion string
	// "p". The sender's listen port, 0 if unknown.
	TCPPort uint16
	// "reqq". The number of outstanding requests the sender allows.
	Reqq int
	// "metadata_size", from BEP 9.
	MetadataSize int

	peer    *Peer
	torrent Torrent
}

var _ Message = (*HandshakeMessage)(nil)

func (m *HandshakeMessage) ExtensionMessageID() ExtensionNumber {
	return HandshakeExtendedID
}

func (m *HandshakeMessage) ExtensionName() ExtensionName {
	return ExtensionNameHandshake
}

func (m *HandshakeMessage) SetExtension(name ExtensionName, id ExtensionNumber) {
	if m.Extensions == nil {
		m.Extensions = make(map[ExtensionName]ExtensionNumber)
	}
	m.Extensions[name] = id
}

// Returns the ID the handshake advertises for name.
func (m *HandshakeMessage) ExtensionID(name ExtensionName) g.Option[ExtensionNumber] {
	id, ok := m.Extensions[name]
	if !ok {
		return g.None[ExtensionNumber]()
	}
	return g.Some(id)
}

// Bencodes the handshake. Dictionary keys are sorted by the encoder, and empty values are left out.
func (m *HandshakeMessage) Payload() ([]byte, error) {
	d := make(map[string]any, 5)
	if len(m.Extensions) != 0 {
		em := make(map[string]int64, len(m.Extensions))
		owners := make(map[ExtensionNumber]ExtensionName, len(m.Extensions))
		for name, id := range m.Extensions {
			if id == HandshakeExtendedID {
				return nil, fmt.Errorf("extension %q uses reserved id 0", name)
			}
			if other := g.MapInsert(owners, id, name); other.Ok {
				return nil, fmt.Errorf("extensions %q and %q both use id %d", other.Value, name, id)
			}
			em[string(name)] = int64(id)
		}
		d["m"] = em
	}
	if m.ClientVersion != "" {
		d["v"] = m.ClientVersion
	}
	if m.TCPPort != 0 {
		d["p"] = int64(m.TCPPort)
	}
	if m.Reqq != 0 {
		d["reqq"] = int64(m.Reqq)
	}
	if m.MetadataSize != 0 {
		d["metadata_size"] = int64(m.MetadataSize)
	}
	return bencode.Marshal(d)
}

// Merges the advertised extensions into the peer's table, and replaces what we know about the peer
// from any earlier handshake.
func (m *HandshakeMessage) DoReceivedAction() error {
	if m.peer == nil {
		return errors.New("handshake has no peer")
	}
	for name := range m.Extensions {
		if !m.peer.SupportsExtension(name) {
			peersSupportingExtension.Add(string(name), 1)
		}
	}
	m.peer.Extensions.Merge(m.Extensions)
	m.peer.SetClientVersion(m.ClientVersion)
	m.peer.SetListenPort(m.TCPPort)
	if m.Reqq != 0 {
		m.peer.SetMaxRequests(m.Reqq)
	}
	if m.MetadataSize != 0 {
		if s, ok := m.torrent.(MetadataSizeSetter); ok {
			return errors.Wrapf(
				s.SetMetadataSize(m.peer, m.MetadataSize),
				"setting metadata size to %d", m.MetadataSize)
		}
	}
	return nil
}

func (m *HandshakeMessage) String() string {
	return fmt.Sprintf(
		"%s client=%q port=%d extensions=%d",
		ExtensionNameHandshake, m.ClientVersion, m.TCPPort, len(m.Extensions))
}

// Decodes a handshake payload, which is everything after the extension ID. Every field is optional,
// but a field that is present must have the right type and range. Unknown fields are ignored.
func DecodeHandshake(b []byte) (*HandshakeMessage, error) {
	const ext = ExtensionNameHandshake
	d, err := decodeDict(ext, b)
	if err != nil {
		return nil, err
	}
	var m HandshakeMessage
	if v, ok, err := dictString(ext, d, "v"); err != nil {
		return nil, err
	} else if ok {
		m.ClientVersion = v
	}
	if p, ok, err := dictInt(ext, d, "p", 0, math.MaxUint16); err != nil {
		return nil, err
	} else if ok {
		m.TCPPort = uint16(p)
	}
	if i, ok, err := dictInt(ext, d, "reqq", 0, math.MaxInt32); err != nil {
		return nil, err
	} else if ok {
		m.Reqq = int(i)
	}
	if i, ok, err := dictInt(ext, d, "metadata_size", 0, math.MaxInt32); err != nil {
		return nil, err
	} else if ok {
		m.MetadataSize = int(i)
	}
	m.Extensions, err = decodeExtensionsDict(d)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func decodeExtensionsDict(d map[string]any) (ret map[ExtensionName]ExtensionNumber, err error) {
	const ext = ExtensionNameHandshake
	v, ok := d["m"]
	if !ok {
		return make(map[ExtensionName]ExtensionNumber), nil
	}
	em, ok := v.(map[string]any)
	if !ok {
		return nil, malformedf(ext, "m", "expected dict, got %T", v)
	}
	g.MakeMapWithCap(&ret, len(em))
	owners := make(map[ExtensionNumber]ExtensionName, len(em))
	for name, v := range em {
		field := "m." + name
		i, ok := v.(int64)
		if !ok {
			return nil, malformedf(ext, field, "expected integer, got %T", v)
		}
		if i == int64(HandshakeExtendedID) {
			return nil, malformedf(ext, field, "id 0 is reserved for the handshake")
		}
		if i < 1 || i > math.MaxUint8 {
			return nil, malformedf(ext, field, "id %d out of range", i)
		}
		id := ExtensionNumber(i)
		if other := g.MapInsert(owners, id, ExtensionName(name)); other.Ok {
			return nil, malformedf(ext, field, "id %d also used by %q", id, other.Value)
		}
		ret[ExtensionName(name)] = id
	}
	return
}
