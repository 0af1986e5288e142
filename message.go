package ltep

// A decoded or locally built extension message. Received messages are created by the Factory, used
// once for their received action and then discarded.
type Message interface {
	// The ID the message is sent with. 0 for the handshake, otherwise as negotiated.
	ExtensionMessageID() ExtensionNumber
	ExtensionName() ExtensionName
	// The message body, without the leading ID byte. For most extensions this is bencoded.
	Payload() ([]byte, error)
	// Applies the effects of receiving the message to the owning peer and torrent.
	DoReceivedAction() error
	String() string
}

// Returns the message as it appears after the extended message type on the wire: the extension ID
// followed by the payload.
func MarshalMessage(m Message) ([]byte, error) {
	payload, err := m.Payload()
	if err != nil {
		return nil, err
	}
	b := make([]byte, 0, 1+len(payload))
	b = append(b, byte(m.ExtensionMessageID()))
	return append(b, payload...), nil
}
