// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package tx

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/luxfi/cellcore/crypto"
	"github.com/luxfi/cellcore/eventlog"
	"github.com/luxfi/cellcore/ids"
	"github.com/luxfi/cellcore/ledger"
	"github.com/luxfi/cellcore/storage"
	"github.com/luxfi/log"
)

const storeKeyPrefix = "tx/"

// IdentityLookup resolves a member's bound public key, the only
// identity capability this package needs. Declared locally so tx does
// not import the identity package directly (spec.md §9 redesign flag:
// acyclic construction via narrow observer interfaces).
type IdentityLookup interface {
	PublicKeyOf(member ids.MemberID) (ids.PublicKey, error)
}

// Engine executes the spot-transaction contract (spec.md §4.3).
type Engine struct {
	mu sync.Mutex

	ledger   *ledger.Ledger
	identity IdentityLookup
	verifier crypto.Verifier
	eventLog *eventlog.Log
	store    storage.Store

	logger log.Logger
}

// New creates a spot-transaction engine.
func New(l *ledger.Ledger, identity IdentityLookup, verifier crypto.Verifier, eventLog *eventlog.Log, store storage.Store) *Engine {
	return &Engine{
		ledger:   l,
		identity: identity,
		verifier: verifier,
		eventLog: eventLog,
		store:    store,
		logger:   log.Root(),
	}
}

// Submit validates and executes a spot transaction (spec.md §4.3):
//  1. id not already recorded (idempotency)
//  2. payer != payee, amount > 0
//  3. both parties exist and are ACTIVE
//  4. canSpend(payer, amount)
//  5. both signatures verify against stored public keys
//
// On success it executes a two-entry batch atomically, appends a
// transaction event, and persists the transaction under its id.
// Submissions are serialized by an engine-wide mutex, so the checks
// and the apply step of one call never interleave with another's.
func (e *Engine) Submit(in CreateSpotTransactionInput) (Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, err := e.lookup(in.ID); err == nil {
		return existing, &DuplicateTransactionError{ID: in.ID}
	}

	if in.Payer == in.Payee {
		return Transaction{}, &SelfTransactionError{Member: in.Payer}
	}
	if in.Amount <= 0 {
		return Transaction{}, &InvalidAmountError{Amount: in.Amount}
	}

	payerState, err := e.ledger.GetMemberState(in.Payer)
	if err != nil {
		return Transaction{}, &MemberNotFoundError{Member: in.Payer}
	}
	if payerState.Status != ledger.StatusActive {
		return Transaction{}, &MemberNotActiveError{Member: in.Payer}
	}
	payeeState, err := e.ledger.GetMemberState(in.Payee)
	if err != nil {
		return Transaction{}, &MemberNotFoundError{Member: in.Payee}
	}
	if payeeState.Status != ledger.StatusActive {
		return Transaction{}, &MemberNotActiveError{Member: in.Payee}
	}

	canSpend, err := e.ledger.CanSpend(in.Payer, in.Amount)
	if err != nil {
		return Transaction{}, &LedgerError{Err: err}
	}
	if !canSpend {
		available, _ := e.ledger.Available(in.Payer)
		return Transaction{}, &InsufficientCapacityError{Available: available, Required: in.Amount}
	}

	payload := canonicalPayload(in.ID, in.Payer, in.Payee, in.Amount, in.Description, in.Category, in.Timestamp)

	payerKey, err := e.identity.PublicKeyOf(in.Payer)
	if err != nil {
		return Transaction{}, &MemberNotFoundError{Member: in.Payer}
	}
	if !e.verifier.Verify(payerKey, payload, in.PayerSignature) {
		return Transaction{}, &InvalidSignatureError{Party: PartyPayer}
	}
	payeeKey, err := e.identity.PublicKeyOf(in.Payee)
	if err != nil {
		return Transaction{}, &MemberNotFoundError{Member: in.Payee}
	}
	if !e.verifier.Verify(payeeKey, payload, in.PayeeSignature) {
		return Transaction{}, &InvalidSignatureError{Party: PartyPayee}
	}

	txn := Transaction{
		ID:             in.ID,
		Payer:          in.Payer,
		Payee:          in.Payee,
		Amount:         in.Amount,
		Description:    in.Description,
		Category:       in.Category,
		Timestamp:      in.Timestamp,
		PayerSignature: in.PayerSignature,
		PayeeSignature: in.PayeeSignature,
	}

	ev, err := e.ledger.ApplyBalanceUpdates([]ledger.BalanceDelta{
		{Member: in.Payer, Delta: -in.Amount, Reason: ledger.ReasonSpotPayer, RelatedEventID: ids.EventID(in.ID)},
		{Member: in.Payee, Delta: in.Amount, Reason: ledger.ReasonSpotPayee, RelatedEventID: ids.EventID(in.ID)},
	})
	if err != nil {
		return Transaction{}, &LedgerError{Err: err}
	}

	e.eventLog.Append(eventlog.TypeTransactionComplete, string(in.ID), eventlog.BalanceUpdatePayload{
		Deltas: []eventlog.BalanceDeltaRecord{
			{Member: in.Payer, Delta: -in.Amount, Reason: ledger.ReasonSpotPayer},
			{Member: in.Payee, Delta: in.Amount, Reason: ledger.ReasonSpotPayee},
		},
	})

	if err := e.persist(txn); err != nil {
		e.logger.Error("tx: failed to persist transaction record", "id", in.ID, "err", err)
	}

	e.logger.Info("tx: spot transaction executed", "id", in.ID, "payer", in.Payer, "payee", in.Payee, "amount", in.Amount, "event", ev.ID)
	return txn, nil
}

// Get returns a previously recorded transaction by id.
func (e *Engine) Get(id ids.TransactionID) (Transaction, error) {
	return e.lookup(id)
}

func (e *Engine) lookup(id ids.TransactionID) (Transaction, error) {
	doc, err := e.store.Get(storeKeyPrefix + string(id))
	if err != nil {
		return Transaction{}, err
	}
	var txn Transaction
	if err := json.Unmarshal(doc.Value, &txn); err != nil {
		return Transaction{}, fmt.Errorf("tx: corrupt stored record for %q: %w", id, err)
	}
	return txn, nil
}

func (e *Engine) persist(txn Transaction) error {
	raw, err := json.Marshal(txn)
	if err != nil {
		return err
	}
	_, err = e.store.Put(storeKeyPrefix+string(txn.ID), raw, "")
	return err
}
