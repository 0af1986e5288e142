package ltep

// These are called synchronously from Factory.HandleMessage, with the peer's receive lock held. nil
// functions are not called.
type Callbacks struct {
	// Called after a handshake has been applied to the peer.
	ReadExtendedHandshake func(*Peer, *HandshakeMessage)
	// Called for every message after its received action succeeds, including handshakes.
	ReadExtensionMessage []func(ReadExtensionMessageEvent)
}

type ReadExtensionMessageEvent struct {
	Peer    *Peer
	Torrent Torrent
	Message Message
}
