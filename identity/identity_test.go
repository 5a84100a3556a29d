// (c) 2025, Lux Collective Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/luxfi/cellcore/eventlog"
	"github.com/luxfi/cellcore/ids"
	"github.com/luxfi/cellcore/ledger"
	"github.com/luxfi/cellcore/utils"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	clock := utils.NewMockableClock()
	elog := eventlog.New(ids.CellID("cell-1"), clock)
	params := ledger.Parameters{LimitMin: 0, LimitMax: 1000, LimitDefault: 100}
	l := ledger.New(ids.CellID("cell-1"), params, elog, clock)
	return New(l, clock, nil)
}

func pubKey(b byte) ids.PublicKey {
	var pk ids.PublicKey
	pk[0] = b
	return pk
}

func TestAddMember_CreatesPendingProfileAndLedgerEntry(t *testing.T) {
	reg := newTestRegistry(t)
	rec, err := reg.AddMember("alice", pubKey(1), "Alice")
	require.NoError(t, err)
	require.Equal(t, ledger.StatusPendingProfile, rec.Status)

	state, err := reg.ledger.GetMemberState("alice")
	require.NoError(t, err)
	require.Equal(t, int64(100), state.Limit)
}

func TestAddMember_RejectsDuplicatePublicKey(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.AddMember("alice", pubKey(1), "Alice")
	require.NoError(t, err)

	_, err = reg.AddMember("bob", pubKey(1), "Bob")
	require.Error(t, err)
	var dup *AlreadyExistsError
	require.ErrorAs(t, err, &dup)
}

func TestAcceptAndFreezeLifecycle(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.AddMember("alice", pubKey(1), "Alice")
	require.NoError(t, err)

	require.NoError(t, reg.AcceptMember("alice"))
	rec, err := reg.GetIdentity("alice")
	require.NoError(t, err)
	require.Equal(t, ledger.StatusActive, rec.Status)

	require.NoError(t, reg.Freeze("alice"))
	rec, err = reg.GetIdentity("alice")
	require.NoError(t, err)
	require.Equal(t, ledger.StatusFrozen, rec.Status)

	require.NoError(t, reg.Unfreeze("alice"))
	rec, err = reg.GetIdentity("alice")
	require.NoError(t, err)
	require.Equal(t, ledger.StatusActive, rec.Status)

	history := reg.ChangeHistory("alice")
	require.Len(t, history, 4) // ADMITTED, ACCEPTED, FROZEN, UNFROZEN
}

func TestRemoveMember_ZeroBalanceMemberIsExcluded(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.AddMember("alice", pubKey(1), "Alice")
	require.NoError(t, err)
	require.NoError(t, reg.AcceptMember("alice"))

	require.NoError(t, reg.RemoveMember("alice"))
	rec, err := reg.GetIdentity("alice")
	require.NoError(t, err)
	require.Equal(t, ledger.StatusExcluded, rec.Status)
}

func TestRemoveMember_RejectsWhenCommitmentCheckerReportsActiveCommitment(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.AddMember("alice", pubKey(1), "Alice")
	require.NoError(t, err)
	require.NoError(t, reg.AcceptMember("alice"))

	ctrl := gomock.NewController(t)
	checker := NewMockActiveCommitmentChecker(ctrl)
	checker.EXPECT().HasActiveCommitment(ids.MemberID("alice")).Return(true).Times(1)
	reg.SetCommitmentChecker(checker)

	err = reg.RemoveMember("alice")
	require.Error(t, err)

	rec, err := reg.GetIdentity("alice")
	require.NoError(t, err)
	require.Equal(t, ledger.StatusActive, rec.Status, "removal must not proceed while a commitment is active")
}

func TestGetIdentityByPublicKey(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.AddMember("alice", pubKey(7), "Alice")
	require.NoError(t, err)

	rec, err := reg.GetIdentityByPublicKey(pubKey(7))
	require.NoError(t, err)
	require.Equal(t, ids.MemberID("alice"), rec.Member)

	_, err = reg.GetIdentityByPublicKey(pubKey(99))
	require.Error(t, err)
}

func TestSearch_CaseInsensitiveSubstring(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.AddMember("alice", pubKey(1), "Alice Anderson")
	require.NoError(t, err)
	_, err = reg.AddMember("bob", pubKey(2), "Bob Baker")
	require.NoError(t, err)

	results := reg.Search("ali")
	require.Len(t, results, 1)
	require.Equal(t, ids.MemberID("alice"), results[0].Member)
}
