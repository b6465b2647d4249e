// Package nodeclient implements the node-to-node HTTP transport used
// for broadcasting transactions and blocks and for fetching peer chains.
package nodeclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/peer"
	"github.com/opencoin/blockchain/foundation/blockchain/state"
)

// defaultTimeout bounds every call against a peer so a dead node can't
// stall broadcast or consensus sweeps.
const defaultTimeout = 10 * time.Second

// Client knows how to talk to other nodes over their private API. It
// implements the state.PeerClient interface.
type Client struct {
	client *resty.Client
}

// New constructs a client for node-to-node communication.
func New() *Client {
	return &Client{
		client: resty.New().SetTimeout(defaultTimeout),
	}
}

// FetchChain asks the peer for its reported chain length and full chain.
func (c *Client) FetchChain(ctx context.Context, pr peer.Peer) (state.ChainFetch, error) {
	var fetch state.ChainFetch

	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&fetch).
		Get(fmt.Sprintf("%s/v1/node/chain", pr.Host))
	if err != nil {
		return state.ChainFetch{}, fmt.Errorf("fetch chain: %w", err)
	}
	if resp.IsError() {
		return state.ChainFetch{}, fmt.Errorf("fetch chain: %s: %s", resp.Status(), resp.String())
	}

	return fetch, nil
}

// SendTx broadcasts the transaction to the peer.
func (c *Client) SendTx(ctx context.Context, pr peer.Peer, tx ledger.Tx) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(tx).
		Post(fmt.Sprintf("%s/v1/node/tx/submit", pr.Host))
	if err != nil {
		return fmt.Errorf("send tx: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send tx: %s: %s", resp.Status(), resp.String())
	}

	return nil
}

// SendBlock proposes the block to the peer.
func (c *Client) SendBlock(ctx context.Context, pr peer.Peer, block ledger.Block) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(block).
		Post(fmt.Sprintf("%s/v1/node/block/propose", pr.Host))
	if err != nil {
		return fmt.Errorf("send block: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send block: %s: %s", resp.Status(), resp.String())
	}

	return nil
}
