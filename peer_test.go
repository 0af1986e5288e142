package ltep

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeerListenAddr(t *testing.T) {
	p := NewPeer(netip.MustParseAddrPort("10.0.0.2:50000"))
	_, ok := p.ListenAddr()
	require.False(t, ok)
	p.SetListenPort(6881)
	addr, ok := p.ListenAddr()
	require.True(t, ok)
	require.Equal(t, netip.MustParseAddrPort("10.0.0.2:6881"), addr)
	var unknown Peer
	unknown.SetListenPort(6881)
	_, ok = unknown.ListenAddr()
	require.False(t, ok)
}

func TestPeerString(t *testing.T) {
	p := NewPeer(netip.MustParseAddrPort("10.0.0.2:50000"))
	p.SetClientVersion("aria2")
	require.Equal(t, `peer 10.0.0.2:50000 ("aria2")`, p.String())
}
