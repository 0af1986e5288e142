// Decodes extension protocol messages given in hex, as a peer would receive them. Handshakes are
// applied in order, so later messages can use the IDs they negotiate.
//
// Example run:
// $ go run ./cmd/ltep-decode 0064313a6d64363a75745f70657869316565313a76353a617269613265 016465
// handshake client="aria2" port=0 extensions=1
// ut_pex id=1 added=0 added6=0 dropped=0 dropped6=0
// torrent 0000000000000000000000000000000000000000, peer extensions: {ut_pex:1}
package main

import (
	"encoding/hex"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/anacrolix/log"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/davecgh/go-spew/spew"
	"github.com/dustin/go-humanize"

	"github.com/anacrolix/ltep"
)

var flags struct {
	Ext      []string `arg:"--ext,separate" help:"an extension the peer already negotiated, as name=id"`
	InfoHash string   `arg:"--infohash" help:"hex infohash of the torrent the messages belong to"`
	Dump     bool     `help:"dump each decoded message"`
	Messages []string `arg:"positional,required" help:"hex encoded messages, starting with the extension id"`
}

var logger = log.Default.WithNames("main")

func main() {
	arg.MustParse(&flags)
	if err := mainErr(); err != nil {
		logger.Levelf(log.Error, "error in main: %v", err)
		os.Exit(1)
	}
}

func parseExt(s string) (name ltep.ExtensionName, id ltep.ExtensionNumber, err error) {
	nameStr, idStr, ok := strings.Cut(s, "=")
	if !ok {
		err = fmt.Errorf("expected name=id, got %q", s)
		return
	}
	u, err := strconv.ParseUint(idStr, 10, 8)
	if err != nil {
		return
	}
	if u == 0 {
		err = fmt.Errorf("extension %q: id 0 is reserved for the handshake", nameStr)
		return
	}
	return ltep.ExtensionName(nameStr), ltep.ExtensionNumber(u), nil
}

func mainErr() error {
	var t ltep.InfoHashTorrent
	if flags.InfoHash != "" {
		if err := (*metainfo.Hash)(&t).FromHexString(flags.InfoHash); err != nil {
			return fmt.Errorf("parsing infohash: %w", err)
		}
	}
	peer := ltep.NewPeer(netip.AddrPort{})
	for _, s := range flags.Ext {
		name, id, err := parseExt(s)
		if err != nil {
			return err
		}
		peer.Extensions.Set(name, id)
	}
	f := ltep.NewFactory(ltep.NewDefaultConfig(), t, peer)
	for _, s := range flags.Messages {
		b, err := hex.DecodeString(s)
		if err != nil {
			return fmt.Errorf("decoding hex %q: %w", s, err)
		}
		m, err := f.HandleMessage(b)
		if err != nil {
			fmt.Printf("%s message: %v\n", humanize.Bytes(uint64(len(b))), err)
			continue
		}
		fmt.Println(m)
		if flags.Dump {
			spew.Dump(m)
		}
	}
	fmt.Printf("torrent %v, peer extensions: %v\n", t.InfoHash().HexString(), &peer.Extensions)
	return nil
}
