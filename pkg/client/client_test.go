package client

import (
	"errors"
	"net"
	"strings"
	"testing"

	"treestore/pkg/common"
	"treestore/pkg/core"
	"treestore/pkg/network"
	"treestore/pkg/protocol"
)

func TestDialInvalidAddr(t *testing.T) {
	_, err := Dial("invalid:invalid:invalid")
	if err == nil {
		t.Fatal("expected error for invalid address")
	}
}

func TestDialUnreachable(t *testing.T) {
	// Connect to non-routable IP (RFC 5737) - expect error
	_, err := Dial("192.0.2.1:9999")
	if err == nil {
		t.Skip("connection unexpectedly succeeded (e.g. in sandbox)")
	}
}

func startServer(t *testing.T, items []common.Record, cycleGuard bool) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := network.NewTCPServer(core.New(items), nil, cycleGuard)
	go srv.Serve(l)
	t.Cleanup(func() { l.Close() })
	return l.Addr().String()
}

func scenario() []common.Record {
	return []common.Record{
		{ID: common.IntID(1), Parent: common.StringID("root")},
		{ID: common.IntID(2), Parent: common.IntID(1), Type: common.TypeOf("test")},
		{ID: common.IntID(3), Parent: common.IntID(1), Type: common.TypeOf("test")},
		{ID: common.IntID(4), Parent: common.IntID(2), Type: common.TypeOf("test")},
		{ID: common.IntID(5), Parent: common.IntID(2), Type: common.TypeOf("test")},
		{ID: common.IntID(6), Parent: common.IntID(2), Type: common.TypeOf("test")},
		{ID: common.IntID(7), Parent: common.IntID(4)},
		{ID: common.IntID(8), Parent: common.IntID(4)},
	}
}

func ids(records []common.Record) []common.Identifier {
	out := make([]common.Identifier, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func sameIDs(t *testing.T, what string, got []common.Record, want ...int64) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("%s: got %v, want %v", what, g, want)
	}
	for i, w := range want {
		if g[i] != common.IntID(w) {
			t.Fatalf("%s: got %v, want %v", what, g, want)
		}
	}
}

func TestClientQueries(t *testing.T) {
	cli, err := Dial(startServer(t, scenario(), false))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer cli.Close()

	all, err := cli.All()
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	sameIDs(t, "all", all, 1, 2, 3, 4, 5, 6, 7, 8)

	rec, err := cli.Get(common.IntID(7))
	if err != nil {
		t.Fatalf("get 7: %v", err)
	}
	if rec.Parent != common.IntID(4) || rec.Type != nil {
		t.Errorf("get 7: unexpected record %v", rec)
	}

	if _, err := cli.Get(common.StringID("7")); !errors.Is(err, ErrNotFound) {
		t.Errorf("get \"7\": expected ErrNotFound, got %v", err)
	}

	children, err := cli.Children(common.IntID(2))
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	sameIDs(t, "children(2)", children, 4, 5, 6)

	desc, err := cli.Descendants(common.IntID(2))
	if err != nil {
		t.Fatalf("descendants: %v", err)
	}
	sameIDs(t, "descendants(2)", desc, 4, 5, 6, 7, 8)

	anc, err := cli.Ancestors(common.IntID(7))
	if err != nil {
		t.Fatalf("ancestors: %v", err)
	}
	sameIDs(t, "ancestors(7)", anc, 4, 2, 1)

	none, err := cli.Children(common.IntID(69))
	if err != nil {
		t.Fatalf("children(69): %v", err)
	}
	sameIDs(t, "children(69)", none)

	roots, err := cli.Roots()
	if err != nil {
		t.Fatalf("roots: %v", err)
	}
	sameIDs(t, "roots", roots, 1)
}

func TestClientCycleGuard(t *testing.T) {
	items := []common.Record{
		{ID: common.IntID(1), Parent: common.IntID(2)},
		{ID: common.IntID(2), Parent: common.IntID(1)},
	}
	cli, err := Dial(startServer(t, items, true))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer cli.Close()

	if _, err := cli.Ancestors(common.IntID(1)); err == nil {
		t.Fatal("expected cycle error from ancestors")
	}
	if _, err := cli.Descendants(common.IntID(1)); err == nil {
		t.Fatal("expected cycle error from descendants")
	}
}

func TestClientOversizedIdentifier(t *testing.T) {
	long := common.StringID(strings.Repeat("a", 70000))
	items := []common.Record{
		{ID: long, Parent: common.StringID("root")},
		{ID: common.IntID(1), Parent: long},
	}
	cli, err := Dial(startServer(t, items, false))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer cli.Close()

	if _, err := cli.Get(long); !errors.Is(err, protocol.ErrFrameTooLarge) {
		t.Fatalf("get long id: expected ErrFrameTooLarge, got %v", err)
	}
	if _, err := cli.Children(long); !errors.Is(err, protocol.ErrFrameTooLarge) {
		t.Fatalf("children of long id: expected ErrFrameTooLarge, got %v", err)
	}

	// The connection stays in sync after a rejected request.
	rec, err := cli.Get(common.IntID(1))
	if err != nil {
		t.Fatalf("get 1: %v", err)
	}
	if rec.Parent != long {
		t.Errorf("get 1: parent kind %v, length mismatch", rec.Parent.Kind())
	}

	anc, err := cli.Ancestors(common.IntID(1))
	if err != nil {
		t.Fatalf("ancestors(1): %v", err)
	}
	if len(anc) != 1 || anc[0].ID != long {
		t.Errorf("ancestors(1): got %d records", len(anc))
	}
}
