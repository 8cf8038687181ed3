package network

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by ResolveConfig.
const (
	EnvRPCURL  = "MSIG_RPC_URL"
	EnvRPCUser = "MSIG_RPC_USER"
	EnvRPCPass = "MSIG_RPC_PASS"
)

// RPCConfig holds the node JSON-RPC endpoint and credentials.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
	Network  string `json:"network"`
}

// NetworkPresets are local-node defaults. Mainnet has none and must be
// configured explicitly.
var NetworkPresets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:18332", User: "msig", Password: "msig"},
	"testnet": {URL: "http://localhost:18333", User: "msig", Password: "msig"},
}

// ResolveConfig layers flags over environment over presets, in that order
// of precedence.
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}
	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&result.URL, env[EnvRPCURL])
	override(&result.User, env[EnvRPCUser])
	override(&result.Password, env[EnvRPCPass])
	if flags != nil {
		override(&result.URL, flags.URL)
		override(&result.User, flags.User)
		override(&result.Password, flags.Password)
	}

	if result.URL == "" {
		return nil, fmt.Errorf("%w: %s needs --rpc-url or %s", ErrNoRPCConfig, network, EnvRPCURL)
	}
	return &result, nil
}

// Environ returns the MSIG_RPC_* variables of the current process.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, "MSIG_RPC_") {
			env[k] = v
		}
	}
	return env
}
