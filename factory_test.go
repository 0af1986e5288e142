package ltep

import (
	"fmt"
	"net/netip"
	"sync"
	"testing"

	qt "github.com/go-quicktest/qt"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCreateMessageHandshake(t *testing.T) {
	peer := newTestPeer()
	m, err := CreateMessage([]byte("\x00d1:v5:aria2e"), peer, InfoHashTorrent{})
	qt.Assert(t, qt.IsNil(err))
	hs, ok := m.(*HandshakeMessage)
	qt.Assert(t, qt.IsTrue(ok))
	qt.Check(t, qt.Equals(hs.ClientVersion, "aria2"))
	qt.Check(t, qt.Equals(hs.ExtensionMessageID(), HandshakeExtendedID))
	qt.Check(t, qt.Equals(hs.ExtensionName(), ExtensionNameHandshake))
	// Creating doesn't apply it.
	qt.Check(t, qt.Equals(peer.ClientVersion(), ""))
}

func TestCreateMessageEmpty(t *testing.T) {
	_, err := CreateMessage(nil, newTestPeer(), InfoHashTorrent{})
	qt.Assert(t, qt.ErrorIs(err, ErrMessageTooShort))
	_, err = CreateMessage([]byte{}, newTestPeer(), InfoHashTorrent{})
	qt.Assert(t, qt.ErrorIs(err, ErrMessageTooShort))
}

func TestCreateMessageUtPex(t *testing.T) {
	peer := newTestPeer()
	peer.Extensions.Set(ExtensionNamePex, 1)
	m, err := CreateMessage([]byte("\x01"+testPexPayload()), peer, InfoHashTorrent{})
	require.NoError(t, err)
	pex, ok := m.(*PexMessage)
	require.True(t, ok)
	require.EqualValues(t, 1, pex.ExtensionMessageID())
	require.Equal(t, ExtensionNamePex, pex.ExtensionName())
	require.Equal(t, []PexPeer{
		{Addr: netip.MustParseAddrPort("192.168.0.1:6881"), Flags: '2'},
		{Addr: netip.MustParseAddrPort("10.1.1.2:9999"), Flags: '0'},
	}, pex.AddedPeers())
	require.Equal(t, []netip.AddrPort{
		netip.MustParseAddrPort("192.168.0.2:6882"),
		netip.MustParseAddrPort("10.1.1.3:10000"),
	}, pex.DroppedAddrs())
}

func TestCreateMessageUnknownId(t *testing.T) {
	peer := newTestPeer()
	peer.Extensions.Set(ExtensionNamePex, 1)
	_, err := CreateMessage([]byte("\xffanything"), peer, InfoHashTorrent{})
	var uie *UnknownExtensionIDError
	qt.Assert(t, qt.ErrorAs(err, &uie))
	qt.Check(t, qt.Equals(uie.ID, 255))
	qt.Check(t, qt.Equals(err.Error(), "unknown extension message id 255"))
}

func TestCreateMessageUnsupportedExtension(t *testing.T) {
	peer := newTestPeer()
	peer.Extensions.Set(ExtensionNamePex, 1)
	peer.Extensions.Set("foo", 255)
	_, err := CreateMessage([]byte{255}, peer, InfoHashTorrent{})
	var uee *UnsupportedExtensionError
	qt.Assert(t, qt.ErrorAs(err, &uee))
	qt.Check(t, qt.Equals(uee.Name, "foo"))
}

func TestCreateMessageMalformedHandshake(t *testing.T) {
	_, err := CreateMessage([]byte("\x00d1:md1:ai0eee"), newTestPeer(), InfoHashTorrent{})
	var mpe *MalformedPayloadError
	qt.Assert(t, qt.ErrorAs(err, &mpe))
	qt.Check(t, qt.Equals(mpe.Extension, ExtensionNameHandshake))
	qt.Check(t, qt.Equals(mpe.Field, "m.a"))
}

func TestCreateMessageMalformedPex(t *testing.T) {
	peer := newTestPeer()
	peer.Extensions.Set(ExtensionNamePex, 3)
	_, err := CreateMessage([]byte("\x03d5:added"), peer, InfoHashTorrent{})
	var mpe *MalformedPayloadError
	qt.Assert(t, qt.ErrorAs(err, &mpe))
	qt.Check(t, qt.Equals(mpe.Extension, ExtensionNamePex))
}

func TestFactoryCustomDecoders(t *testing.T) {
	peer := newTestPeer()
	peer.Extensions.Set(ExtensionNamePex, 1)
	f := NewFactory(nil, InfoHashTorrent{}, peer)
	f.Decoders = map[ExtensionName]DecodeFunc{}
	_, err := f.CreateMessage([]byte("\x01de"))
	var uee *UnsupportedExtensionError
	qt.Assert(t, qt.ErrorAs(err, &uee))
	f.Decoders = DefaultDecoders()
	m, err := f.CreateMessage([]byte("\x01de"))
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.Equals(m.ExtensionName(), ExtensionNamePex))
}

func TestHandleMessageRehandshake(t *testing.T) {
	peer := newTestPeer()
	f := NewFactory(NewDefaultConfig(), InfoHashTorrent{}, peer)
	_, err := f.HandleMessage([]byte("\x00d1:md1:ai1ee1:pi6881e1:v5:aria2e"))
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.Equals(peer.ClientVersion(), "aria2"))
	qt.Check(t, qt.Equals(peer.ListenPort(), 6881))
	_, err = f.HandleMessage([]byte("\x00d1:md1:ai2e1:bi3eee"))
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.DeepEquals(peer.Extensions.Map(), map[ExtensionName]ExtensionNumber{"a": 2, "b": 3}))
	qt.Check(t, qt.IsFalse(peer.Extensions.NameFor(1).Ok))
	// A later handshake overwrites the version and port, even with nothing.
	qt.Check(t, qt.Equals(peer.ClientVersion(), ""))
	qt.Check(t, qt.Equals(peer.ListenPort(), 0))
}

func TestHandleMessageFailedDecodeLeavesPeer(t *testing.T) {
	peer := newTestPeer()
	f := NewFactory(NewDefaultConfig(), InfoHashTorrent{}, peer)
	_, err := f.HandleMessage([]byte("\x00d1:md1:ai1ee1:v1:xe"))
	qt.Assert(t, qt.IsNil(err))
	for _, b := range []string{
		"\x00d1:md1:bi2e1:ci0eee",
		"\x00d1:md1:bi2ee1:pi70000ee",
		"\x00d1:md1:bi2ee",
		"",
		"\x09de",
	} {
		_, err := f.HandleMessage([]byte(b))
		qt.Check(t, qt.IsNotNil(err))
	}
	qt.Check(t, qt.DeepEquals(peer.Extensions.Map(), map[ExtensionName]ExtensionNumber{"a": 1}))
	qt.Check(t, qt.Equals(peer.ClientVersion(), "x"))
}

func TestHandleMessageEffects(t *testing.T) {
	peer := newTestPeer()
	var tt testTorrent
	cfg := NewDefaultConfig()
	var handshakes []*HandshakeMessage
	var names []ExtensionName
	cfg.Callbacks.ReadExtendedHandshake = func(p *Peer, m *HandshakeMessage) {
		qt.Check(t, qt.Equals(p, peer))
		handshakes = append(handshakes, m)
	}
	cfg.Callbacks.ReadExtensionMessage = append(cfg.Callbacks.ReadExtensionMessage, func(e ReadExtensionMessageEvent) {
		names = append(names, e.Message.ExtensionName())
	})
	f := NewFactory(cfg, &tt, peer)
	_, err := f.HandleMessage([]byte("\x00d1:md11:ut_metadatai2e6:ut_pexi1ee13:metadata_sizei31235e4:reqqi500ee"))
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.Equals(tt.metadataSize, 31235))
	qt.Check(t, qt.Equals(peer.MaxRequests(), 500))
	_, err = f.HandleMessage([]byte("\x01" + testPexPayload()))
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.HasLen(tt.added, 2))
	qt.Check(t, qt.CmpEquals(tt.dropped, []netip.AddrPort{
		netip.MustParseAddrPort("192.168.0.2:6882"),
		netip.MustParseAddrPort("10.1.1.3:10000"),
	}, cmp.Comparer(func(a, b netip.AddrPort) bool { return a == b })))
	_, err = f.HandleMessage([]byte("\x02d8:msg_typei0e5:piecei1ee"))
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.HasLen(tt.metadataMsgs, 1))
	qt.Check(t, qt.Equals(tt.metadataMsgs[0].Piece, 1))
	qt.Check(t, qt.HasLen(handshakes, 1))
	qt.Check(t, qt.DeepEquals(names, []ExtensionName{
		ExtensionNameHandshake, ExtensionNamePex, ExtensionNameMetadata,
	}))
}

func TestHandleMessageDisablePex(t *testing.T) {
	peer := newTestPeer()
	peer.Extensions.Set(ExtensionNamePex, 1)
	var tt testTorrent
	cfg := NewDefaultConfig()
	cfg.DisablePEX = true
	f := NewFactory(cfg, &tt, peer)
	m, err := f.HandleMessage([]byte("\x01" + testPexPayload()))
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.Equals(m.ExtensionName(), ExtensionNamePex))
	qt.Check(t, qt.HasLen(tt.added, 0))
}

func TestMarshalMessage(t *testing.T) {
	b, err := MarshalMessage(&HandshakeMessage{ClientVersion: "aria2"})
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.Equals(string(b), "\x00d1:v5:aria2e"))
	peer := newTestPeer()
	m, err := CreateMessage(b, peer, InfoHashTorrent{})
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.Equals(m.(*HandshakeMessage).ClientVersion, "aria2"))
}

func TestFactoryUserProtocolReplacesBuiltin(t *testing.T) {
	peer := newTestPeer()
	peer.Extensions.Set(ExtensionNamePex, 1)
	peer.Extensions.Set(ExtensionNameMetadata, 2)
	cfg := NewDefaultConfig()
	cfg.Extensions.AddUserProtocol(ExtensionNamePex)
	f := NewFactory(cfg, InfoHashTorrent{}, peer)
	_, err := f.CreateMessage([]byte("\x01" + testPexPayload()))
	var uee *UnsupportedExtensionError
	qt.Assert(t, qt.ErrorAs(err, &uee))
	qt.Check(t, qt.Equals(uee.Name, ExtensionNamePex))
	// The other builtins are unaffected.
	m, err := f.CreateMessage([]byte("\x02d8:msg_typei0e5:piecei0ee"))
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.Equals(m.ExtensionName(), ExtensionNameMetadata))
	// A decoder passed to the factory handles it again.
	f.Decoders = map[ExtensionName]DecodeFunc{ExtensionNamePex: decodePex}
	m, err = f.CreateMessage([]byte("\x01" + testPexPayload()))
	qt.Assert(t, qt.IsNil(err))
	qt.Check(t, qt.Equals(m.ExtensionName(), ExtensionNamePex))
}

// Run with -race. Messages for one peer from many goroutines are applied one at a time.
func TestHandleMessageConcurrent(t *testing.T) {
	peer := newTestPeer()
	var tt testTorrent
	f := &Factory{Peer: peer, Torrent: &tt}
	const n = 8
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hs := HandshakeMessage{ClientVersion: fmt.Sprintf("client %d", i)}
			hs.SetExtension(ExtensionName(fmt.Sprintf("ext%d", i)), ExtensionNumber(i+2))
			hs.SetExtension(ExtensionNamePex, 1)
			b, err := MarshalMessage(&hs)
			if err != nil {
				panic(err)
			}
			_, err = f.HandleMessage(b)
			qt.Check(t, qt.IsNil(err))
			_, err = f.HandleMessage([]byte("\x01" + testPexPayload()))
			qt.Check(t, qt.IsNil(err))
		}()
	}
	wg.Wait()
	qt.Check(t, qt.IsTrue(f.Config == nil))
	qt.Check(t, qt.Equals(peer.Extensions.Len(), n+1))
	qt.Check(t, qt.HasLen(tt.added, 2*n))
	qt.Check(t, qt.HasLen(tt.dropped, 2*n))
}
