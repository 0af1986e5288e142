package ltep

import (
	"fmt"
	"math"
	"slices"

	"github.com/anacrolix/missinggo/v2/panicif"
)

// The extensions we advertise to peers. An extension's local ID is its position in Index plus one.
// The first NumBuiltin names are decoded by this package when a peer sends them, the rest only
// through decoders given to the Factory.
type LocalProtocolMap struct {
	Index      []ExtensionName
	NumBuiltin int
}

func DefaultLocalProtocolMap() LocalProtocolMap {
	return LocalProtocolMap{
		Index:      []ExtensionName{ExtensionNamePex, ExtensionNameMetadata, ExtensionNameHolepunch},
		NumBuiltin: 3,
	}
}

// Returns the "m" dictionary for our extended handshake.
func (me *LocalProtocolMap) ExtensionDict() map[ExtensionName]ExtensionNumber {
	panicif.True(len(me.Index) > math.MaxUint8)
	m := make(map[ExtensionName]ExtensionNumber, len(me.Index))
	for i, name := range me.Index {
		if _, dup := m[name]; dup {
			panic(fmt.Sprintf("extension %q listed twice", name))
		}
		m[name] = ExtensionNumber(i + 1)
	}
	return m
}

// Whether messages for name are decoded by this package's builtin decoders.
func (me *LocalProtocolMap) IsBuiltin(name ExtensionName) bool {
	return slices.Contains(me.Index[:me.NumBuiltin], name)
}

// Moves or appends name to the end of the user protocols. A builtin name added here stops using
// the builtin decoder.
func (me *LocalProtocolMap) AddUserProtocol(name ExtensionName) {
	if i := slices.Index(me.Index, name); i >= 0 {
		me.Index = slices.Delete(slices.Clone(me.Index), i, i+1)
		if i < me.NumBuiltin {
			me.NumBuiltin--
		}
	}
	me.Index = append(me.Index, name)
}
