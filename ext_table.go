package ltep

import (
	"fmt"
	"sort"
	"strings"

	g "github.com/anacrolix/generics"
	"github.com/anacrolix/sync"
)

type (
	ExtensionName   string
	ExtensionNumber uint8
)

const (
	// The extended handshake always uses ID 0, it's never negotiated.
	HandshakeExtendedID ExtensionNumber = 0

	ExtensionNameHandshake ExtensionName = "handshake"
	// http://www.bittorrent.org/beps/bep_0011.html
	ExtensionNamePex ExtensionName = "ut_pex"
	// http://www.bittorrent.org/beps/bep_0009.html
	ExtensionNameMetadata ExtensionName = "ut_metadata"
	// http://www.bittorrent.org/beps/bep_0055.html
	ExtensionNameHolepunch ExtensionName = "ut_holepunch"
)

// ExtensionTable holds the extension IDs a remote peer advertised in its extended handshakes. Each
// ID maps to at most one name at any time. The zero value is ready to use.
type ExtensionTable struct {
	mu     sync.RWMutex
	byName map[ExtensionName]ExtensionNumber
	byID   map[ExtensionNumber]ExtensionName
}

func (t *ExtensionTable) initMaps() {
	if t.byName == nil {
		t.byName = make(map[ExtensionName]ExtensionNumber)
		t.byID = make(map[ExtensionNumber]ExtensionName)
	}
}

// Must be called with the write lock held.
func (t *ExtensionTable) set(name ExtensionName, id ExtensionNumber) {
	t.initMaps()
	if old, ok := t.byName[name]; ok {
		delete(t.byID, old)
	}
	if other, ok := t.byID[id]; ok {
		delete(t.byName, other)
	}
	t.byName[name] = id
	t.byID[id] = name
}

// Set inserts or replaces the ID for name. Any other name previously using id is removed.
func (t *ExtensionTable) Set(name ExtensionName, id ExtensionNumber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.set(name, id)
}

// Merge applies Set for every entry of m. Readers never observe a partially applied merge.
func (t *ExtensionTable) Merge(m map[ExtensionName]ExtensionNumber) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, id := range m {
		t.set(name, id)
	}
}

func (t *ExtensionTable) IdFor(name ExtensionName) g.Option[ExtensionNumber] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.byName[name]
	if !ok {
		return g.None[ExtensionNumber]()
	}
	return g.Some(id)
}

func (t *ExtensionTable) NameFor(id ExtensionNumber) g.Option[ExtensionName] {
	t.mu.RLock()
	defer t.mu.RUnlock()
	name, ok := t.byID[id]
	if !ok {
		return g.None[ExtensionName]()
	}
	return g.Some(name)
}

func (t *ExtensionTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byName)
}

// Map returns a copy of the name to ID mapping.
func (t *ExtensionTable) Map() (m map[ExtensionName]ExtensionNumber) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g.MakeMapWithCap(&m, len(t.byName))
	for name, id := range t.byName {
		m[name] = id
	}
	return
}

func (t *ExtensionTable) String() string {
	m := t.Map()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for i, name := range names {
		names[i] = fmt.Sprintf("%s:%d", name, m[ExtensionName(name)])
	}
	return "{" + strings.Join(names, " ") + "}"
}
