// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package tx

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/luxfi/cellcore/crypto"
	"github.com/luxfi/cellcore/eventlog"
	"github.com/luxfi/cellcore/ids"
	"github.com/luxfi/cellcore/ledger"
	"github.com/luxfi/cellcore/storage/memstore"
	"github.com/luxfi/cellcore/utils"
)

type fakeIdentity struct {
	keys map[ids.MemberID]ids.PublicKey
}

func (f *fakeIdentity) PublicKeyOf(member ids.MemberID) (ids.PublicKey, error) {
	pk, ok := f.keys[member]
	if !ok {
		return ids.PublicKey{}, &MemberNotFoundError{Member: member}
	}
	return pk, nil
}

type testHarness struct {
	ledger *ledger.Ledger
	engine *Engine
	signer map[ids.MemberID]*crypto.LocalSigner
}

func newHarness(t *testing.T, members ...ids.MemberID) *testHarness {
	t.Helper()
	clock := utils.NewMockableClock()
	elog := eventlog.New(ids.CellID("cell-1"), clock)
	params := ledger.Parameters{LimitMin: 0, LimitMax: 1000, LimitDefault: 100}
	l := ledger.New(ids.CellID("cell-1"), params, elog, clock)

	identity := &fakeIdentity{keys: make(map[ids.MemberID]ids.PublicKey)}
	signers := make(map[ids.MemberID]*crypto.LocalSigner)
	for _, m := range members {
		require.NoError(t, l.AddMember(m, 100))
		require.NoError(t, l.SetStatus(m, ledger.StatusActive))
		signer, err := crypto.NewLocalSigner()
		require.NoError(t, err)
		signers[m] = signer
		identity.keys[m] = signer.PublicKey()
	}

	engine := New(l, identity, crypto.Ed25519Verifier{}, elog, memstore.New())
	return &testHarness{ledger: l, engine: engine, signer: signers}
}

func (h *testHarness) sign(t *testing.T, member ids.MemberID, payload []byte) crypto.Signature {
	t.Helper()
	sig, err := h.signer[member].Sign(payload)
	require.NoError(t, err)
	return sig
}

func (h *testHarness) buildInput(t *testing.T, id ids.TransactionID, payer, payee ids.MemberID, amount int64) CreateSpotTransactionInput {
	t.Helper()
	ts := time.Unix(1700000000, 0).UTC()
	payload := canonicalPayload(id, payer, payee, amount, "lunch", "food", ts)
	return CreateSpotTransactionInput{
		ID:             id,
		Payer:          payer,
		Payee:          payee,
		Amount:         amount,
		Description:    "lunch",
		Category:       "food",
		Timestamp:      ts,
		PayerSignature: h.sign(t, payer, payload),
		PayeeSignature: h.sign(t, payee, payload),
	}
}

func TestSubmit_HappyPath(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	in := h.buildInput(t, "tx-1", "alice", "bob", 30)

	txn, err := h.engine.Submit(in)
	require.NoError(t, err)
	require.Equal(t, ids.TransactionID("tx-1"), txn.ID)

	balA, err := h.ledger.GetBalance("alice")
	require.NoError(t, err)
	require.Equal(t, int64(-30), balA)

	balB, err := h.ledger.GetBalance("bob")
	require.NoError(t, err)
	require.Equal(t, int64(30), balB)

	stored, err := h.engine.Get("tx-1")
	require.NoError(t, err)
	require.Equal(t, int64(30), stored.Amount)
}

func TestSubmit_RejectsWhenPayerIdentityLookupFails(t *testing.T) {
	clock := utils.NewMockableClock()
	elog := eventlog.New(ids.CellID("cell-1"), clock)
	params := ledger.Parameters{LimitMin: 0, LimitMax: 1000, LimitDefault: 100}
	l := ledger.New(ids.CellID("cell-1"), params, elog, clock)
	require.NoError(t, l.AddMember("alice", 100))
	require.NoError(t, l.SetStatus("alice", ledger.StatusActive))
	require.NoError(t, l.AddMember("bob", 100))
	require.NoError(t, l.SetStatus("bob", ledger.StatusActive))

	ctrl := gomock.NewController(t)
	identity := NewMockIdentityLookup(ctrl)
	identity.EXPECT().PublicKeyOf(ids.MemberID("alice")).Return(ids.PublicKey{}, errors.New("unbound key")).Times(1)

	engine := New(l, identity, crypto.Ed25519Verifier{}, elog, memstore.New())
	_, err := engine.Submit(CreateSpotTransactionInput{
		ID:        "tx-1",
		Payer:     "alice",
		Payee:     "bob",
		Amount:    10,
		Timestamp: clock.Time(),
	})
	require.Error(t, err)
	var notFound *MemberNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSubmit_DuplicateIsIdempotent(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	in := h.buildInput(t, "tx-1", "alice", "bob", 30)

	_, err := h.engine.Submit(in)
	require.NoError(t, err)

	_, err = h.engine.Submit(in)
	require.Error(t, err)
	var dup *DuplicateTransactionError
	require.ErrorAs(t, err, &dup)

	balA, err := h.ledger.GetBalance("alice")
	require.NoError(t, err)
	require.Equal(t, int64(-30), balA, "duplicate submission must not double-apply")
}

func TestSubmit_RejectsSelfTransaction(t *testing.T) {
	h := newHarness(t, "alice")
	in := h.buildInput(t, "tx-1", "alice", "alice", 10)

	_, err := h.engine.Submit(in)
	require.Error(t, err)
	var self *SelfTransactionError
	require.ErrorAs(t, err, &self)
}

func TestSubmit_RejectsInvalidAmount(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	in := h.buildInput(t, "tx-1", "alice", "bob", 0)

	_, err := h.engine.Submit(in)
	require.Error(t, err)
	var amt *InvalidAmountError
	require.ErrorAs(t, err, &amt)
}

func TestSubmit_RejectsInsufficientCapacity(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	in := h.buildInput(t, "tx-1", "alice", "bob", 200)

	_, err := h.engine.Submit(in)
	require.Error(t, err)
	var cap *InsufficientCapacityError
	require.ErrorAs(t, err, &cap)
	require.Equal(t, int64(100), cap.Available)
}

func TestSubmit_RejectsTamperedSignature(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	in := h.buildInput(t, "tx-1", "alice", "bob", 30)
	in.Amount = 31 // payload now mismatches what was signed

	_, err := h.engine.Submit(in)
	require.Error(t, err)
	var sigErr *InvalidSignatureError
	require.ErrorAs(t, err, &sigErr)
}

func TestSubmit_RejectsInactiveMember(t *testing.T) {
	h := newHarness(t, "alice", "bob")
	require.NoError(t, h.ledger.FreezeMember("bob"))
	in := h.buildInput(t, "tx-1", "alice", "bob", 10)

	_, err := h.engine.Submit(in)
	require.Error(t, err)
	var notActive *MemberNotActiveError
	require.ErrorAs(t, err, &notActive)
}
