package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libmultisig-go/api"
	"github.com/bitfsorg/libmultisig-go/multisig"
	"github.com/bitfsorg/libmultisig-go/owner"
)

// backend is what the operator commands need, served either by the local
// ledger or by a remote API.
type backend interface {
	Owners(ctx context.Context) (*api.OwnersResponse, error)
	Balance(ctx context.Context) (uint64, error)
	Transactions(ctx context.Context, pendingOnly bool) ([]*multisig.Transaction, error)
	Transaction(ctx context.Context, index uint64) (*multisig.Transaction, error)
	Deposit(ctx context.Context, from owner.Address, amount uint64) (uint64, error)
	Submit(ctx context.Context, to string, value uint64, data []byte) (uint64, error)
	Confirm(ctx context.Context, index uint64) (*multisig.Transaction, error)
	Revoke(ctx context.Context, index uint64) (*multisig.Transaction, error)
	Execute(ctx context.Context, index uint64) (*multisig.Transaction, error)
	Close() error
}

// openBackend returns the remote API when --server is set and the local
// ledger otherwise. signer loads the owner key for mutating commands.
func (o *options) openBackend(cmd *cobra.Command, signer, settle bool) (backend, error) {
	if o.server != "" {
		c := api.NewClient(o.server, nil)
		if signer {
			w, err := o.openWallet()
			if err != nil {
				return nil, err
			}
			k, err := w.OwnerKey(o.ownerIndex)
			if err != nil {
				return nil, err
			}
			c = api.NewClient(o.server, k.PrivateKey)
		}
		return remoteBackend{c}, nil
	}

	b := &localBackend{}
	if signer {
		w, err := o.openWallet()
		if err != nil {
			return nil, err
		}
		k, err := w.OwnerKey(o.ownerIndex)
		if err != nil {
			return nil, err
		}
		b.caller = k.Address
	}
	e, err := o.openEngine(cmd, settle)
	if err != nil {
		return nil, err
	}
	b.engine = e
	b.resolver = o.resolver()
	return b, nil
}

type remoteBackend struct {
	*api.Client
}

func (remoteBackend) Close() error { return nil }

type localBackend struct {
	engine   *multisig.Engine
	caller   owner.Address
	resolver api.AddressResolver
}

func (b *localBackend) Owners(context.Context) (*api.OwnersResponse, error) {
	return &api.OwnersResponse{Owners: b.engine.Owners(), Threshold: b.engine.Threshold()}, nil
}

func (b *localBackend) Balance(context.Context) (uint64, error) {
	return b.engine.Balance()
}

func (b *localBackend) Transactions(_ context.Context, pendingOnly bool) ([]*multisig.Transaction, error) {
	if pendingOnly {
		return b.engine.Pending()
	}
	return b.engine.Transactions()
}

func (b *localBackend) Transaction(_ context.Context, index uint64) (*multisig.Transaction, error) {
	return b.engine.Transaction(index)
}

func (b *localBackend) Deposit(_ context.Context, from owner.Address, amount uint64) (uint64, error) {
	return b.engine.Deposit(from, amount)
}

func (b *localBackend) Submit(_ context.Context, to string, value uint64, data []byte) (uint64, error) {
	addr, err := b.resolver.Resolve(to)
	if err != nil {
		return 0, err
	}
	return b.engine.Submit(b.caller, addr, value, data)
}

func (b *localBackend) Confirm(_ context.Context, index uint64) (*multisig.Transaction, error) {
	if err := b.engine.Confirm(b.caller, index); err != nil {
		return nil, err
	}
	return b.engine.Transaction(index)
}

func (b *localBackend) Revoke(_ context.Context, index uint64) (*multisig.Transaction, error) {
	if err := b.engine.Revoke(b.caller, index); err != nil {
		return nil, err
	}
	return b.engine.Transaction(index)
}

func (b *localBackend) Execute(ctx context.Context, index uint64) (*multisig.Transaction, error) {
	if err := b.engine.Execute(ctx, b.caller, index); err != nil {
		return nil, err
	}
	return b.engine.Transaction(index)
}

func (b *localBackend) Close() error {
	return b.engine.Close()
}
