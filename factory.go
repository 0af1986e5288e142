package ltep

import (
	"github.com/anacrolix/log"
	"github.com/anacrolix/missinggo/v2/panicif"
	"github.com/pkg/errors"
)

// Creates messages from the raw extension messages received from a single peer. It has no state of
// its own. The peer and torrent are handed to the messages it creates.
type Factory struct {
	Peer    *Peer
	Torrent Torrent
	// nil uses NewDefaultConfig.
	Config *Config
	// Decoders for negotiated extensions, by name. nil uses the builtin decoders for the extensions
	// Config lists as builtin.
	Decoders map[ExtensionName]DecodeFunc
}

func NewFactory(cfg *Config, t Torrent, peer *Peer) *Factory {
	panicif.True(peer == nil)
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	return &Factory{
		Peer:    peer,
		Torrent: t,
		Config:  cfg,
	}
}

// Creates the message for b using the default decoders. b starts with the extension ID, which is
// resolved through the peer's extension table unless it's the handshake.
func CreateMessage(b []byte, peer *Peer, t Torrent) (Message, error) {
	return createMessage(b, peer, t, builtinDecoders)
}

func (f *Factory) CreateMessage(b []byte) (Message, error) {
	return f.create(b, f.config())
}

func (f *Factory) create(b []byte, cfg *Config) (Message, error) {
	decoders := f.Decoders
	if decoders == nil {
		decoders = configDecoders(cfg)
	}
	return createMessage(b, f.Peer, f.Torrent, decoders)
}

func createMessage(
	b []byte,
	peer *Peer,
	t Torrent,
	decoders map[ExtensionName]DecodeFunc,
) (Message, error) {
	panicif.True(peer == nil)
	if len(b) == 0 {
		return nil, ErrMessageTooShort
	}
	id := ExtensionNumber(b[0])
	payload := b[1:]
	if id == HandshakeExtendedID {
		m, err := DecodeHandshake(payload)
		if err != nil {
			return nil, err
		}
		m.peer = peer
		m.torrent = t
		return m, nil
	}
	name := peer.Extensions.NameFor(id)
	if !name.Ok {
		return nil, &UnknownExtensionIDError{ID: id}
	}
	decode, ok := decoders[name.Value]
	if !ok {
		return nil, &UnsupportedExtensionError{Name: name.Value}
	}
	return decode(id, payload, peer, t)
}

// Never assigns to f.Config, as it's called without the peer's receive lock.
func (f *Factory) config() *Config {
	if f.Config == nil {
		return NewDefaultConfig()
	}
	return f.Config
}

// Decodes b and applies its effects. Messages for the same peer are handled one at a time, in the
// order of the calls. Errors only concern this message: the peer's state is unchanged by a message
// that fails to decode, and it's up to the caller whether to drop the connection.
func (f *Factory) HandleMessage(b []byte) (Message, error) {
	cfg := f.config()
	logger := cfg.Logger.WithNames("factory")
	f.Peer.receiveMu.Lock()
	defer f.Peer.receiveMu.Unlock()
	m, err := f.create(b, cfg)
	if err != nil {
		extensionErrors.Add(errorKind(err), 1)
		logger.Levelf(log.Debug, "%v: error creating extension message: %v", f.Peer, err)
		return nil, err
	}
	extensionMessagesReceived.Add(string(m.ExtensionName()), 1)
	if m.ExtensionName() == ExtensionNamePex && cfg.DisablePEX {
		return m, nil
	}
	if err := m.DoReceivedAction(); err != nil {
		extensionErrors.Add("received action", 1)
		logger.Levelf(log.Warning, "%v: error handling %v: %v", f.Peer, m, err)
		return m, errors.Wrapf(err, "handling %s message", m.ExtensionName())
	}
	if hs, ok := m.(*HandshakeMessage); ok && cfg.Callbacks.ReadExtendedHandshake != nil {
		cfg.Callbacks.ReadExtendedHandshake(f.Peer, hs)
	}
	for _, cb := range cfg.Callbacks.ReadExtensionMessage {
		cb(ReadExtensionMessageEvent{
			Peer:    f.Peer,
			Torrent: f.Torrent,
			Message: m,
		})
	}
	return m, nil
}
