package peer_test

import (
	"errors"
	"testing"

	"github.com/opencoin/blockchain/foundation/blockchain/peer"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestNew(t *testing.T) {
	t.Log("Given the need to validate peer address parsing.")
	{
		pr, err := peer.New("http://node2.example.com:9080")
		if err != nil {
			t.Fatalf("\t%s\tShould parse a full address: %v", failed, err)
		}
		t.Logf("\t%s\tShould parse a full address.", success)

		if pr.Host != "http://node2.example.com:9080" {
			t.Fatalf("\t%s\tShould normalize to scheme://host:port: got %q", failed, pr.Host)
		}
		t.Logf("\t%s\tShould normalize to scheme://host:port.", success)

		if _, err := peer.New("//node2.example.com:9080"); !errors.Is(err, peer.ErrMissingScheme) {
			t.Fatalf("\t%s\tShould reject an address without a scheme: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an address without a scheme.", success)
	}
}

func TestRegistry(t *testing.T) {
	t.Log("Given the need to validate the ordered peer registry.")
	{
		reg := peer.NewRegistry()

		p1, _ := peer.New("http://node1:9080")
		p2, _ := peer.New("http://node2:9080")
		p3, _ := peer.New("http://node3:9080")

		if !reg.Add(p2) || !reg.Add(p1) || !reg.Add(p3) {
			t.Fatalf("\t%s\tShould add new peers.", failed)
		}
		t.Logf("\t%s\tShould add new peers.", success)

		if reg.Add(p2) {
			t.Fatalf("\t%s\tShould refuse a duplicate peer.", failed)
		}
		t.Logf("\t%s\tShould refuse a duplicate peer.", success)

		if reg.Count() != 3 {
			t.Fatalf("\t%s\tShould count 3 peers: got %d", failed, reg.Count())
		}
		t.Logf("\t%s\tShould count 3 peers.", success)

		peers := reg.Copy("")
		if len(peers) != 3 || peers[0] != p2 || peers[1] != p1 || peers[2] != p3 {
			t.Fatalf("\t%s\tShould keep insertion order: got %+v", failed, peers)
		}
		t.Logf("\t%s\tShould keep insertion order.", success)

		peers = reg.Copy(p1.Host)
		if len(peers) != 2 || peers[0] != p2 || peers[1] != p3 {
			t.Fatalf("\t%s\tShould exclude the caller's own host: got %+v", failed, peers)
		}
		t.Logf("\t%s\tShould exclude the caller's own host.", success)
	}
}
