/*
Package ltep implements the negotiation and dispatch side of the BitTorrent extension protocol
(http://www.bittorrent.org/beps/bep_0010.html).

Each peer connection has a Peer, whose ExtensionTable is filled from the extended handshakes the
peer sends. Raw extension messages, starting with the extension ID byte, are turned into Messages by
a Factory:

	f := ltep.NewFactory(ltep.NewDefaultConfig(), torrent, ltep.NewPeer(addr))
	m, err := f.HandleMessage(payload)
	if err != nil {
		// Only this message was bad. Whether to drop the peer is up to the caller.
	}

ID 0 is always the handshake. Other IDs only have meaning through the peer's table, and the name
they resolve to selects the decoder: ut_pex, ut_metadata and ut_holepunch are built in.
*/
package ltep
