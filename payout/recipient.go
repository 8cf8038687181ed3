// Package payout settles approved multisig actions: in-process through
// registered recipients, or on-chain through a treasury-funded transaction.
package payout

import (
	"context"
	"fmt"
	"sync"

	"github.com/op/go-logging"

	"github.com/bitfsorg/libmultisig-go/multisig"
	"github.com/bitfsorg/libmultisig-go/owner"
)

var log = logging.MustGetLogger("PAYOUT")

// Payment is what a recipient is asked to accept.
type Payment struct {
	From  owner.Address
	To    owner.Address
	Value uint64
	Data  []byte
}

// Recipient can receive value and optionally run logic driven by Data.
// Returning an error refuses the payment.
type Recipient interface {
	Receive(ctx context.Context, p Payment) error
}

// RecipientFunc adapts a function to Recipient.
type RecipientFunc func(ctx context.Context, p Payment) error

// Receive calls f.
func (f RecipientFunc) Receive(ctx context.Context, p Payment) error {
	return f(ctx, p)
}

// Directory routes actions to registered recipients by address. Actions for
// unregistered addresses are plain transfers handed to the fallback executor;
// they may not carry call data.
type Directory struct {
	from     owner.Address
	fallback multisig.Executor

	mu         sync.RWMutex
	recipients map[owner.Address]Recipient
}

var _ multisig.Executor = (*Directory)(nil)

// NewDirectory creates a directory paying from the given treasury address.
// A nil fallback settles plain transfers with multisig.DirectTransfer.
func NewDirectory(from owner.Address, fallback multisig.Executor) *Directory {
	if fallback == nil {
		fallback = multisig.DirectTransfer
	}
	return &Directory{
		from:       from,
		fallback:   fallback,
		recipients: make(map[owner.Address]Recipient),
	}
}

// Register installs r for addr, replacing any previous recipient.
func (d *Directory) Register(addr owner.Address, r Recipient) error {
	if r == nil {
		return fmt.Errorf("%w: recipient", ErrNilParam)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recipients[addr] = r
	return nil
}

// Unregister removes the recipient for addr.
func (d *Directory) Unregister(addr owner.Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.recipients, addr)
}

// Lookup returns the recipient registered for addr.
func (d *Directory) Lookup(addr owner.Address) (Recipient, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.recipients[addr]
	return r, ok
}

// Execute implements multisig.Executor.
func (d *Directory) Execute(ctx context.Context, a multisig.Action) error {
	r, ok := d.Lookup(a.To)
	if !ok {
		if len(a.Data) > 0 {
			return fmt.Errorf("%w: %s", ErrNoRecipient, a.To)
		}
		return d.fallback.Execute(ctx, a)
	}
	p := Payment{From: d.from, To: a.To, Value: a.Value, Data: append([]byte{}, a.Data...)}
	if err := r.Receive(ctx, p); err != nil {
		log.Warningf("recipient %s refused tx %d: %v", a.To, a.Index, err)
		return err
	}
	log.Debugf("recipient %s accepted tx %d", a.To, a.Index)
	return nil
}
