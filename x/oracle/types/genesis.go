package types

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// RequesterNonce records how many requests a requester has opened.
type RequesterNonce struct {
	Requester sdk.AccAddress `json:"requester" yaml:"requester"`
	Nonce     uint64         `json:"nonce" yaml:"nonce"`
}

// GenesisState is the exported oracle ledger.
type GenesisState struct {
	Params          Params           `json:"params" yaml:"params"`
	Registry        *Registry        `json:"registry,omitempty" yaml:"registry,omitempty"`
	Requests        []Request        `json:"requests" yaml:"requests"`
	Proofs          []Proof          `json:"proofs" yaml:"proofs"`
	RequesterNonces []RequesterNonce `json:"requester_nonces" yaml:"requester_nonces"`
}

// NewGenesisState creates a new genesis state.
func NewGenesisState(params Params, registry *Registry, requests []Request, proofs []Proof, nonces []RequesterNonce) GenesisState {
	return GenesisState{
		Params:          params,
		Registry:        registry,
		Requests:        requests,
		Proofs:          proofs,
		RequesterNonces: nonces,
	}
}

// DefaultGenesisState returns a default genesis state with no registry
func DefaultGenesisState() *GenesisState {
	return &GenesisState{
		Params:          DefaultParams(),
		Requests:        []Request{},
		Proofs:          []Proof{},
		RequesterNonces: []RequesterNonce{},
	}
}

// Validate performs basic genesis state validation returning an error upon any
// failure.
func (gs GenesisState) Validate() error {
	if err := gs.Params.Validate(); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}

	if gs.Registry == nil {
		if len(gs.Requests) > 0 || len(gs.Proofs) > 0 {
			return fmt.Errorf("requests present without a registry")
		}
		return nil
	}
	if err := gs.Registry.Validate(); err != nil {
		return fmt.Errorf("invalid registry: %w", err)
	}

	nonces := make(map[string]uint64, len(gs.RequesterNonces))
	for _, n := range gs.RequesterNonces {
		key := n.Requester.String()
		if _, dup := nonces[key]; dup {
			return fmt.Errorf("duplicate nonce for requester %s", key)
		}
		nonces[key] = n.Nonce
	}

	registry := RegistryAddress()
	requests := make(map[string]Request, len(gs.Requests))
	for _, req := range gs.Requests {
		if err := req.Validate(); err != nil {
			return fmt.Errorf("invalid request %s: %w", req.Address, err)
		}
		key := req.Address.String()
		if _, dup := requests[key]; dup {
			return fmt.Errorf("duplicate request %s", key)
		}
		if !req.Oracle.Equals(registry) {
			return fmt.Errorf("request %s references unknown registry %s", key, req.Oracle)
		}
		if !req.Address.Equals(RequestAddress(req.Requester, req.Oracle, req.Nonce)) {
			return fmt.Errorf("request %s is not derived from its requester and nonce", key)
		}
		if req.Nonce >= nonces[req.Requester.String()] {
			return fmt.Errorf("request %s nonce %d not below requester nonce", key, req.Nonce)
		}
		requests[key] = req
	}
	if uint64(len(gs.Requests)) > gs.Registry.TotalRequests {
		return fmt.Errorf("%d requests exceed total_requests %d", len(gs.Requests), gs.Registry.TotalRequests)
	}

	proven := make(map[string]bool, len(gs.Proofs))
	for _, proof := range gs.Proofs {
		if err := proof.Validate(); err != nil {
			return fmt.Errorf("invalid proof %s: %w", proof.Address, err)
		}
		req, ok := requests[proof.Request.String()]
		if !ok {
			return fmt.Errorf("proof %s references unknown request %s", proof.Address, proof.Request)
		}
		if req.Status != StatusVerified && req.Status != StatusSettled {
			return fmt.Errorf("proof %s references %s request", proof.Address, req.Status)
		}
		if proven[proof.Request.String()] {
			return fmt.Errorf("duplicate proof for request %s", proof.Request)
		}
		proven[proof.Request.String()] = true
	}
	for key, req := range requests {
		if (req.Status == StatusVerified || req.Status == StatusSettled) && !proven[key] {
			return fmt.Errorf("%s request %s has no proof", req.Status, key)
		}
	}

	return nil
}
