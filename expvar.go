package ltep

import (
	"expvar"
)

func init() {
	ltep.Set("peers supporting extension", &peersSupportingExtension)
	ltep.Set("extension messages received", &extensionMessagesReceived)
	ltep.Set("extension message errors", &extensionErrors)
	ltep.Set("pex peers received", &pexPeersReceived)
}

var (
	ltep = expvar.NewMap("ltep")
	// Counts of peers that advertised each extension name for the first time.
	peersSupportingExtension expvar.Map
	// By extension name.
	extensionMessagesReceived expvar.Map
	// By kind of error.
	extensionErrors  expvar.Map
	pexPeersReceived expvar.Int
)
