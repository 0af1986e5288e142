package ltep

import (
	"github.com/anacrolix/log"

	"github.com/anacrolix/ltep/version"
)

// Local extension protocol settings. Use NewDefaultConfig, the zero value isn't usable. Probably not
// safe to modify after it's given to a Factory.
type Config struct {
	// The "v" we send. Empty leaves it out of the handshake.
	ClientVersion string
	// The "p" we send. 0 leaves it out of the handshake.
	ListenPort uint16
	// The "reqq" we send.
	MaxRequests int
	// Don't advertise ut_pex, and ignore any ut_pex messages received.
	DisablePEX bool
	// The extensions we advertise, in local ID order.
	Extensions LocalProtocolMap
	Logger     log.Logger
	Callbacks  Callbacks
}

func NewDefaultConfig() *Config {
	return &Config{
		ClientVersion: version.DefaultExtendedHandshakeClientVersion,
		ListenPort:    42069,
		MaxRequests:   250,
		Extensions:    DefaultLocalProtocolMap(),
		Logger:        log.Default.WithNames("ltep"),
	}
}

// Returns the extended handshake we send to peers.
func (cfg *Config) HandshakeMessage() *HandshakeMessage {
	m := &HandshakeMessage{
		Extensions:    cfg.Extensions.ExtensionDict(),
		ClientVersion: cfg.ClientVersion,
		TCPPort:       cfg.ListenPort,
		Reqq:          cfg.MaxRequests,
	}
	if cfg.DisablePEX {
		delete(m.Extensions, ExtensionNamePex)
	}
	return m
}
