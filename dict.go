package ltep

import (
	"bytes"

	"github.com/anacrolix/torrent/bencode"
)

// Decodes b, which must be exactly one bencoded dictionary.
func decodeDict(ext ExtensionName, b []byte) (d map[string]any, err error) {
	if err = bencode.Unmarshal(b, &d); err != nil {
		return nil, malformed(ext, "", err)
	}
	if d == nil {
		d = make(map[string]any)
	}
	return
}

// Decodes a bencoded dictionary from the front of b, and returns whatever follows it. ut_metadata
// appends raw data after the dictionary.
func decodeDictPrefix(ext ExtensionName, b []byte) (d map[string]any, rest []byte, err error) {
	dec := bencode.NewDecoder(bytes.NewReader(b))
	if err = dec.Decode(&d); err != nil {
		return nil, nil, malformed(ext, "", err)
	}
	if d == nil {
		d = make(map[string]any)
	}
	return d, b[dec.Offset:], nil
}

func dictString(ext ExtensionName, d map[string]any, key string) (s string, ok bool, err error) {
	v, ok := d[key]
	if !ok {
		return
	}
	s, ok = v.(string)
	if !ok {
		err = malformedf(ext, key, "expected string, got %T", v)
	}
	return
}

// Returns the integer at key, which must be within [lo, hi].
func dictInt(ext ExtensionName, d map[string]any, key string, lo, hi int64) (i int64, ok bool, err error) {
	v, ok := d[key]
	if !ok {
		return
	}
	i, ok = v.(int64)
	if !ok {
		err = malformedf(ext, key, "expected integer, got %T", v)
		return
	}
	if i < lo || i > hi {
		ok = false
		err = malformedf(ext, key, "%d out of range [%d, %d]", i, lo, hi)
	}
	return
}
