package multisig

import (
	"context"
	"fmt"
	"math"

	"github.com/bitfsorg/libmultisig-go/owner"
)

// Execute performs an approved transaction. The transaction is marked
// executed and the balance debited before the executor runs; if the executor
// fails both are restored and ErrExecutionFailed is returned, so a later
// retry is possible. The executor is called without the engine lock held and
// may call back into the engine.
//
// A cancelled ctx is reported as ErrExecutionFailed only once every
// authorization and state precondition holds.
//
// If the executor fails and the restore cannot be written after
// rollbackAttempts tries, ErrRollbackFailed is returned instead: the record
// stays executed with its value debited and must be repaired by an operator.
func (e *Engine) Execute(ctx context.Context, caller owner.Address, index uint64) error {
	action, err := e.claim(ctx, caller, index)
	if err != nil {
		return err
	}

	if err := e.exec.Execute(ctx, action); err != nil {
		log.Warningf("tx %d execution failed: %v", index, err)
		if rbErr := e.rollback(index, action.Value); rbErr != nil {
			log.Errorf("tx %d rollback failed, record needs repair: %v", index, rbErr)
			return fmt.Errorf("%w: tx %d: %w (execution: %v)", ErrRollbackFailed, index, rbErr, err)
		}
		return fmt.Errorf("%w: tx %d: %w", ErrExecutionFailed, index, err)
	}
	log.Infof("tx %d executed by %s: %d to %s", index, caller, action.Value, action.To)
	return nil
}

// claim checks every precondition and commits the executed flag together
// with the debit, so a concurrent Execute of the same index fails.
func (e *Engine) claim(ctx context.Context, caller owner.Address, index uint64) (Action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller); err != nil {
		return Action{}, err
	}
	rec, err := e.loadPending(index)
	if err != nil {
		return Action{}, err
	}
	if n, t := len(rec.Confirmations), e.registry.Threshold(); n < t {
		return Action{}, fmt.Errorf("%w: tx %d has %d of %d", ErrInsufficientConfirmations, index, n, t)
	}
	bal, err := e.store.Balance()
	if err != nil {
		return Action{}, fmt.Errorf("multisig: read balance: %w", err)
	}
	if bal < rec.Value {
		return Action{}, fmt.Errorf("%w: %w: have %d, need %d", ErrExecutionFailed, ErrInsufficientBalance, bal, rec.Value)
	}
	if err := ctx.Err(); err != nil {
		return Action{}, fmt.Errorf("%w: tx %d: %w", ErrExecutionFailed, index, err)
	}
	rec.Executed = true
	if err := e.store.Commit(rec, bal-rec.Value); err != nil {
		return Action{}, fmt.Errorf("multisig: commit tx %d: %w", index, err)
	}
	return Action{
		Index: rec.Index,
		To:    rec.To,
		Value: rec.Value,
		Data:  append([]byte{}, rec.Data...),
	}, nil
}

// rollbackAttempts bounds how often a failed restore is retried.
const rollbackAttempts = 3

func (e *Engine) rollback(index, value uint64) error {
	var err error
	for i := 0; i < rollbackAttempts; i++ {
		if err = e.restore(index, value); err == nil {
			return nil
		}
		log.Warningf("tx %d restore attempt %d failed: %v", index, i+1, err)
	}
	return err
}

func (e *Engine) restore(index, value uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.load(index)
	if err != nil {
		return err
	}
	bal, err := e.store.Balance()
	if err != nil {
		return err
	}
	if bal > math.MaxUint64-value {
		return fmt.Errorf("balance overflow restoring %d", value)
	}
	rec.Executed = false
	return e.store.Commit(rec, bal+value)
}
