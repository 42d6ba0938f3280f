package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// StatusError is returned when a peer answers with a non 2xx status.
type StatusError struct {
	Code int
	Msg  string
}

// Error implements the error interface.
func (se *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", se.Code, se.Msg)
}

// StatusCode returns the status code carried by the error or zero.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// =============================================================================

// NetRequestChain asks the peer for its full chain.
func (s *State) NetRequestChain(ctx context.Context, address string) (ChainDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, s.peerTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, address))

	var doc ChainDocument
	if err := s.send(ctx, http.MethodGet, url, nil, &doc); err != nil {
		return ChainDocument{}, err
	}

	s.evHandler("state: NetRequestChain: peer[%s]: length[%d]", address, len(doc.Chain))

	return doc, nil
}

// NetRequestChainSummary asks the peer for the hash of its tip and the
// length of its chain.
func (s *State) NetRequestChainSummary(ctx context.Context, address string) (database.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.peerTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/chain/summary", fmt.Sprintf(baseURL, address))

	var sum database.Summary
	if err := s.send(ctx, http.MethodGet, url, nil, &sum); err != nil {
		return database.Summary{}, err
	}

	return sum, nil
}

// NetRequestPeers asks the peer for the list of peers it knows about.
func (s *State) NetRequestPeers(ctx context.Context, address string) ([]peer.Peer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.peerTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, address))

	var doc PeersDocument
	if err := s.send(ctx, http.MethodGet, url, nil, &doc); err != nil {
		return nil, err
	}

	return doc.Peers, nil
}

// NetRegisterWith tells the peer this node exists with its role and merges
// the peer list the peer answers with.
func (s *State) NetRegisterWith(ctx context.Context, address string) ([]peer.Peer, error) {
	s.evHandler("state: NetRegisterWith: started: peer[%s]", address)
	defer s.evHandler("state: NetRegisterWith: completed: peer[%s]", address)

	ctx, cancel := context.WithTimeout(ctx, s.peerTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/peers/register", fmt.Sprintf(baseURL, address))

	reg := RegisterDocument{
		Nodes: []string{"http://" + s.RetrieveHost()},
		Role:  s.role,
	}

	var doc PeersDocument
	if err := s.send(ctx, http.MethodPost, url, reg, &doc); err != nil {
		return nil, err
	}

	added := s.registry.Merge(doc.Peers)
	if _, isNew, err := s.registry.RegisterPeer(address); err == nil && isNew {
		added++
	}

	s.evHandler("state: NetRegisterWith: peer[%s]: returned[%d]: added[%d]", address, len(doc.Peers), added)

	return doc.Peers, nil
}

// NetSendBlock proposes the block to the peer.
func (s *State) NetSendBlock(ctx context.Context, address string, block database.Block) error {
	ctx, cancel := context.WithTimeout(ctx, s.broadcastTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/block/receive", fmt.Sprintf(baseURL, address))

	return s.send(ctx, http.MethodPost, url, BlockDocument{Block: block}, nil)
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func (s *State) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader

	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}

	if dataSend != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if err != nil {
			return err
		}
		return &StatusError{Code: resp.StatusCode, Msg: strings.TrimSpace(string(msg))}
	}

	if resp.StatusCode == http.StatusNoContent || dataRecv == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
		return err
	}

	return nil
}
