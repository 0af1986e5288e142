package ltep

import (
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/pkg/errors"
)

// http://www.bittorrent.org/beps/bep_0055.html. Unlike the other extensions, the payload is binary.
type (
	HolepunchMsg struct {
		MsgType  HolepunchMsgType
		AddrPort netip.AddrPort
		ErrCode  HolepunchErrCode
	}
	HolepunchMsgType byte
	HolepunchErrCode uint32
)

const (
	HolepunchRendezvous HolepunchMsgType = iota
	HolepunchConnect
	HolepunchError
)

func (me HolepunchMsgType) String() string {
	switch me {
	case HolepunchRendezvous:
		return "rendezvous"
	case HolepunchConnect:
		return "connect"
	case HolepunchError:
		return "error"
	default:
		return fmt.Sprintf("unknown %d", byte(me))
	}
}

var _ error = HolepunchErrCode(0)

const (
	HolepunchNoSuchPeer HolepunchErrCode = iota + 1
	HolepunchNotConnected
	HolepunchNoSupport
	HolepunchNoSelf
)

func (ec HolepunchErrCode) Error() string {
	switch ec {
	case HolepunchNoSuchPeer:
		return "target endpoint is invalid"
	case HolepunchNotConnected:
		return "the relaying peer is not connected to the target peer"
	case HolepunchNoSupport:
		return "the target peer does not support the holepunch extension"
	case HolepunchNoSelf:
		return "the target endpoint belongs to the relaying peer"
	default:
		return fmt.Sprintf("error code %d", uint32(ec))
	}
}

const (
	holepunchAddrIpv4 byte = 0
	holepunchAddrIpv6 byte = 1
)

func (m *HolepunchMsg) UnmarshalBinary(b []byte) error {
	if len(b) < 2 {
		return errors.New("missing message and address type")
	}
	m.MsgType = HolepunchMsgType(b[0])
	addrType := b[1]
	b = b[2:]
	var addrLen int
	switch addrType {
	case holepunchAddrIpv4:
		addrLen = 4
	case holepunchAddrIpv6:
		addrLen = 16
	default:
		return fmt.Errorf("unknown address type %d", addrType)
	}
	if len(b) != addrLen+6 {
		return fmt.Errorf("expected %d bytes after address type, got %d", addrLen+6, len(b))
	}
	addr, _ := netip.AddrFromSlice(b[:addrLen])
	b = b[addrLen:]
	m.AddrPort = netip.AddrPortFrom(addr, binary.BigEndian.Uint16(b))
	m.ErrCode = HolepunchErrCode(binary.BigEndian.Uint32(b[2:]))
	return nil
}

func (m *HolepunchMsg) MarshalBinary() ([]byte, error) {
	addr := m.AddrPort.Addr()
	b := make([]byte, 0, 24)
	b = append(b, byte(m.MsgType))
	switch {
	case addr.Is4():
		b = append(b, holepunchAddrIpv4)
	case addr.Is6():
		b = append(b, holepunchAddrIpv6)
	default:
		return nil, fmt.Errorf("unhandled addr type: %v", addr)
	}
	b = append(b, addr.AsSlice()...)
	b = binary.BigEndian.AppendUint16(b, m.AddrPort.Port())
	return binary.BigEndian.AppendUint32(b, uint32(m.ErrCode)), nil
}

// A ut_holepunch message.
type HolepunchMessage struct {
	HolepunchMsg
	ID ExtensionNumber

	peer    *Peer
	torrent Torrent
}

var _ Message = (*HolepunchMessage)(nil)

func (m *HolepunchMessage) ExtensionMessageID() ExtensionNumber {
	return m.ID
}

func (m *HolepunchMessage) ExtensionName() ExtensionName {
	return ExtensionNameHolepunch
}

func (m *HolepunchMessage) Payload() ([]byte, error) {
	return m.HolepunchMsg.MarshalBinary()
}

func (m *HolepunchMessage) DoReceivedAction() error {
	h, ok := m.torrent.(HolepunchHandler)
	if !ok {
		return nil
	}
	return h.GotHolepunchMessage(m.peer, m.HolepunchMsg)
}

func (m *HolepunchMessage) String() string {
	s := fmt.Sprintf("%s id=%d %v %v", ExtensionNameHolepunch, m.ID, m.MsgType, m.AddrPort)
	if m.MsgType == HolepunchError {
		s += fmt.Sprintf(": %v", m.ErrCode)
	}
	return s
}

func decodeHolepunch(id ExtensionNumber, b []byte, peer *Peer, t Torrent) (Message, error) {
	m := &HolepunchMessage{ID: id, peer: peer, torrent: t}
	if err := m.HolepunchMsg.UnmarshalBinary(b); err != nil {
		return nil, malformed(ExtensionNameHolepunch, "", err)
	}
	return m, nil
}
