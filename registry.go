package ltep

// Decodes the payload of a negotiated extension message. id is the ID the message arrived with, and
// peer and t are the message's owners for its received action.
type DecodeFunc func(id ExtensionNumber, payload []byte, peer *Peer, t Torrent) (Message, error)

var builtinDecoders = map[ExtensionName]DecodeFunc{
	ExtensionNamePex:       decodePex,
	ExtensionNameMetadata:  decodeMetadata,
	ExtensionNameHolepunch: decodeHolepunch,
}

// Returns a new map of the decoders for the extensions this package implements. The handshake isn't
// included, as it's never looked up by name.
func DefaultDecoders() map[ExtensionName]DecodeFunc {
	ret := make(map[ExtensionName]DecodeFunc, len(builtinDecoders))
	for name, f := range builtinDecoders {
		ret[name] = f
	}
	return ret
}

// Returns the builtin decoders for the extensions cfg lists as builtin. A builtin extension that
// was taken over with AddUserProtocol needs a decoder passed to the Factory.
func configDecoders(cfg *Config) map[ExtensionName]DecodeFunc {
	ret := make(map[ExtensionName]DecodeFunc, len(builtinDecoders))
	for name, decode := range builtinDecoders {
		if cfg.Extensions.IsBuiltin(name) {
			ret[name] = decode
		}
	}
	return ret
}
