package network

import "errors"

var (
	// ErrConnectionFailed indicates the node could not be reached or returned
	// a non-2xx HTTP status.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrBroadcastRejected indicates the node refused a settlement transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrInvalidResponse indicates a malformed JSON-RPC reply.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrNoRPCConfig indicates no node URL was configured for the network.
	ErrNoRPCConfig = errors.New("network: rpc not configured")
)
