package vault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/app"
	"github.com/keyless-one/strongbox/errors"
	"github.com/keyless-one/strongbox/store"
	"github.com/keyless-one/strongbox/strongboxtest"
	"github.com/keyless-one/strongbox/x"
)

type env struct {
	t    *testing.T
	db   strongbox.CacheableKVStore
	auth *strongboxtest.Auth
	rt   *app.Router
	ping *strongboxtest.Handler
	now  time.Time

	wallets   WalletBucket
	proposals ProposalBucket
}

func newEnv(t *testing.T) *env {
	t.Helper()
	rt := app.NewRouter()
	auth := &strongboxtest.Auth{}
	RegisterRoutes(rt, x.ChainAuth(auth, Authenticate{}), NewDelegate(rt))
	ping := &strongboxtest.Handler{}
	rt.Handle("ping", ping)
	return &env{
		t:         t,
		db:        store.MemStore(),
		auth:      auth,
		rt:        rt,
		ping:      ping,
		now:       time.Unix(1600000000, 0).UTC(),
		wallets:   NewWalletBucket(),
		proposals: NewProposalBucket(),
	}
}

func (e *env) ctx() strongbox.Context {
	return strongbox.WithBlockTime(context.Background(), e.now)
}

func (e *env) deliver(signer strongbox.Condition, msg strongbox.Msg) (*strongbox.DeliverResult, error) {
	e.auth.Signer = signer
	return e.rt.Deliver(e.ctx(), e.db, &strongboxtest.Tx{Msg: msg})
}

func (e *env) createWallet(owners []strongbox.Address, threshold uint32, delay strongbox.UnixDuration) strongbox.Address {
	e.t.Helper()
	res, err := e.deliver(strongboxtest.NewCondition(), &CreateWalletMsg{
		Metadata:     &strongbox.Metadata{Schema: 1},
		Seed:         []byte("test wallet seed"),
		Owners:       owners,
		Threshold:    threshold,
		MinimumDelay: delay,
	})
	require.NoError(e.t, err)
	return strongbox.Address(res.Data)
}

func (e *env) propose(signer strongbox.Condition, wallet strongbox.Address, instrs ...Instruction) strongbox.Address {
	e.t.Helper()
	if len(instrs) == 0 {
		instrs = []Instruction{{Target: "ping", Payload: []byte("payload")}}
	}
	res, err := e.deliver(signer, &CreateProposalMsg{
		Metadata:     &strongbox.Metadata{Schema: 1},
		Wallet:       wallet,
		Instructions: instrs,
	})
	require.NoError(e.t, err)
	return strongbox.Address(res.Data)
}

func (e *env) approve(signer strongbox.Condition, proposal strongbox.Address) error {
	_, err := e.deliver(signer, &ApproveMsg{
		Metadata: &strongbox.Metadata{Schema: 1},
		Proposal: proposal,
	})
	return err
}

func (e *env) execute(signer strongbox.Condition, proposal strongbox.Address, subs ...uint64) error {
	_, err := e.deliver(signer, &ExecuteMsg{
		Metadata:         &strongbox.Metadata{Schema: 1},
		Proposal:         proposal,
		SubWalletIndexes: subs,
	})
	return err
}

func threeOwners() ([]strongbox.Condition, []strongbox.Address) {
	conds := []strongbox.Condition{
		strongboxtest.NewCondition(),
		strongboxtest.NewCondition(),
		strongboxtest.NewCondition(),
	}
	addrs := make([]strongbox.Address, len(conds))
	for i, c := range conds {
		addrs[i] = c.Address()
	}
	return conds, addrs
}

func TestCreateWallet(t *testing.T) {
	e := newEnv(t)
	_, addrs := threeOwners()

	addr := e.createWallet(addrs, 2, 0)

	cond, bump, err := WalletCondition([]byte("test wallet seed"))
	require.NoError(t, err)
	assert.True(t, cond.Address().Equals(addr))

	wallet, err := e.wallets.GetWallet(e.db, addr)
	require.NoError(t, err)
	assert.Equal(t, bump, wallet.Bump)
	assert.Equal(t, uint32(2), wallet.Threshold)
	assert.Equal(t, uint32(maxOwnersAllowed), wallet.MaxOwners)
	assert.Equal(t, uint64(0), wallet.OwnerSetSeq)
	assert.Equal(t, uint64(0), wallet.ProposalCount)
}

func TestCreateWalletDuplicate(t *testing.T) {
	e := newEnv(t)
	_, addrs := threeOwners()

	e.createWallet(addrs, 2, 0)
	_, err := e.deliver(strongboxtest.NewCondition(), &CreateWalletMsg{
		Metadata:  &strongbox.Metadata{Schema: 1},
		Seed:      []byte("test wallet seed"),
		Owners:    addrs[:1],
		Threshold: 1,
	})
	assert.True(t, errors.ErrDuplicate.Is(err))
}

func TestProposeAutoApproves(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)

	propAddr := e.propose(conds[1], wallet)

	cond, _, err := ProposalCondition(wallet, 0)
	require.NoError(t, err)
	assert.True(t, cond.Address().Equals(propAddr))

	proposal, err := e.proposals.GetProposal(e.db, propAddr)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, proposal.Approvals)
	assert.True(t, addrs[1].Equals(proposal.Proposer))
	assert.Equal(t, uint64(0), proposal.OwnerSetSeq)
	assert.Equal(t, strongbox.AsUnixTime(e.now), proposal.CreatedAt)
	assert.False(t, proposal.Executed())

	w, err := e.wallets.GetWallet(e.db, wallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), w.ProposalCount)
}

func TestProposeRequiresOwner(t *testing.T) {
	e := newEnv(t)
	_, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)

	_, err := e.deliver(strongboxtest.NewCondition(), &CreateProposalMsg{
		Metadata:     &strongbox.Metadata{Schema: 1},
		Wallet:       wallet,
		Instructions: []Instruction{{Target: "ping"}},
	})
	assert.True(t, ErrInvalidOwner.Is(err))
}

func TestProposeEtaBelowMinimumDelay(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, strongbox.AsUnixDuration(time.Hour))

	_, err := e.deliver(conds[0], &CreateProposalMsg{
		Metadata:     &strongbox.Metadata{Schema: 1},
		Wallet:       wallet,
		Instructions: []Instruction{{Target: "ping"}},
		Eta:          strongbox.AsUnixTime(e.now.Add(30 * time.Minute)),
	})
	assert.True(t, ErrInvalidSchedule.Is(err))

	// An eta at or past now+delay is accepted.
	_, err = e.deliver(conds[0], &CreateProposalMsg{
		Metadata:     &strongbox.Metadata{Schema: 1},
		Wallet:       wallet,
		Instructions: []Instruction{{Target: "ping"}},
		Eta:          strongbox.AsUnixTime(e.now.Add(time.Hour)),
	})
	assert.NoError(t, err)
}

func TestTwoOfThreeLifecycle(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)

	propAddr := e.propose(conds[0], wallet, Instruction{
		Target:  "ping",
		Payload: []byte("payload"),
		Accounts: []AccountMeta{
			{Address: wallet, Writable: true, Authority: true},
		},
	})

	// One approval is below the threshold of two.
	err := e.execute(conds[0], propAddr)
	assert.True(t, ErrNotEnoughSigners.Is(err))

	require.NoError(t, e.approve(conds[1], propAddr))

	// Anyone may trigger execution once the quorum is met.
	executor := strongboxtest.NewCondition()
	require.NoError(t, e.execute(executor, propAddr))
	assert.Equal(t, 1, e.ping.DeliverCallCount())

	proposal, err := e.proposals.GetProposal(e.db, propAddr)
	require.NoError(t, err)
	assert.True(t, proposal.Executed())
	assert.True(t, executor.Address().Equals(proposal.Executor))
	assert.Equal(t, strongbox.AsUnixTime(e.now), proposal.ExecutedAt)
}

func TestExecuteTwiceRejected(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)

	propAddr := e.propose(conds[0], wallet)
	require.NoError(t, e.approve(conds[1], propAddr))
	require.NoError(t, e.execute(conds[0], propAddr))

	before := e.stateSnapshot(wallet, propAddr)

	err := e.execute(conds[0], propAddr)
	assert.True(t, ErrAlreadyExecuted.Is(err))
	assert.Equal(t, 1, e.ping.DeliverCallCount())

	// The failed attempt left every byte of state untouched.
	assert.Equal(t, before, e.stateSnapshot(wallet, propAddr))

	// An executed proposal also rejects approval changes.
	err = e.approve(conds[2], propAddr)
	assert.True(t, ErrAlreadyExecuted.Is(err))
	_, err = e.deliver(conds[0], &UnapproveMsg{
		Metadata: &strongbox.Metadata{Schema: 1},
		Proposal: propAddr,
	})
	assert.True(t, ErrAlreadyExecuted.Is(err))
}

// stateSnapshot returns the serialized wallet and proposal state for
// byte-level comparison.
func (e *env) stateSnapshot(wallet, proposal strongbox.Address) [2]string {
	e.t.Helper()
	w, err := e.wallets.GetWallet(e.db, wallet)
	require.NoError(e.t, err)
	rawW, err := w.Marshal()
	require.NoError(e.t, err)
	p, err := e.proposals.GetProposal(e.db, proposal)
	require.NoError(e.t, err)
	rawP, err := p.Marshal()
	require.NoError(e.t, err)
	return [2]string{string(rawW), string(rawP)}
}

func TestMinimumDelayTimeLock(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, strongbox.AsUnixDuration(time.Hour))

	propAddr := e.propose(conds[0], wallet)
	require.NoError(t, e.approve(conds[1], propAddr))

	err := e.execute(conds[0], propAddr)
	assert.True(t, ErrNotReady.Is(err))

	// Just before the deadline is still locked.
	e.now = e.now.Add(time.Hour - time.Second)
	err = e.execute(conds[0], propAddr)
	assert.True(t, ErrNotReady.Is(err))

	e.now = e.now.Add(time.Second)
	assert.NoError(t, e.execute(conds[0], propAddr))
}

func TestEtaExtendsTimeLock(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, strongbox.AsUnixDuration(time.Hour))

	res, err := e.deliver(conds[0], &CreateProposalMsg{
		Metadata:     &strongbox.Metadata{Schema: 1},
		Wallet:       wallet,
		Instructions: []Instruction{{Target: "ping"}},
		Eta:          strongbox.AsUnixTime(e.now.Add(2 * time.Hour)),
	})
	require.NoError(t, err)
	propAddr := strongbox.Address(res.Data)
	require.NoError(t, e.approve(conds[1], propAddr))

	e.now = e.now.Add(time.Hour)
	err = e.execute(conds[0], propAddr)
	assert.True(t, ErrNotReady.Is(err))

	e.now = e.now.Add(time.Hour)
	assert.NoError(t, e.execute(conds[0], propAddr))
}

func TestApprovalChecks(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)
	propAddr := e.propose(conds[0], wallet)

	// A non-owner cannot approve.
	err := e.approve(strongboxtest.NewCondition(), propAddr)
	assert.True(t, ErrInvalidOwner.Is(err))

	// Approving twice is an idempotent no-op.
	require.NoError(t, e.approve(conds[1], propAddr))
	require.NoError(t, e.approve(conds[1], propAddr))
	proposal, err := e.proposals.GetProposal(e.db, propAddr)
	require.NoError(t, err)
	assert.Equal(t, 2, proposal.ApprovalCount())

	// Unapprove drops the quorum again, even for the proposer.
	_, err = e.deliver(conds[1], &UnapproveMsg{
		Metadata: &strongbox.Metadata{Schema: 1},
		Proposal: propAddr,
	})
	require.NoError(t, err)
	_, err = e.deliver(conds[0], &UnapproveMsg{
		Metadata: &strongbox.Metadata{Schema: 1},
		Proposal: propAddr,
	})
	require.NoError(t, err)
	proposal, err = e.proposals.GetProposal(e.db, propAddr)
	require.NoError(t, err)
	assert.Equal(t, 0, proposal.ApprovalCount())

	err = e.execute(conds[0], propAddr)
	assert.True(t, ErrNotEnoughSigners.Is(err))
}

func updatePayload(t *testing.T, wallet strongbox.Address, owners []strongbox.Address, threshold uint32) []byte {
	t.Helper()
	raw, err := (&UpdateWalletMsg{
		Metadata:  &strongbox.Metadata{Schema: 1},
		Wallet:    wallet,
		Owners:    owners,
		Threshold: threshold,
	}).Marshal()
	require.NoError(t, err)
	return raw
}

func TestGovernanceUpdateStalesProposals(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)

	// A regular proposal, approved up to the threshold but not executed.
	pending := e.propose(conds[0], wallet)
	require.NoError(t, e.approve(conds[1], pending))

	// A governance proposal replacing the third owner.
	newOwner := strongboxtest.NewCondition()
	newSet := []strongbox.Address{addrs[0], addrs[1], newOwner.Address()}
	update := e.propose(conds[0], wallet, Instruction{
		Target:  "vault/update",
		Payload: updatePayload(t, wallet, newSet, 2),
		Accounts: []AccountMeta{
			{Address: wallet, Writable: true, Authority: true},
		},
	})
	require.NoError(t, e.approve(conds[1], update))
	require.NoError(t, e.execute(conds[0], update))

	w, err := e.wallets.GetWallet(e.db, wallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), w.OwnerSetSeq)
	assert.Equal(t, 2, w.OwnerIndex(newOwner.Address()))

	// The pending proposal is permanently dead now.
	err = e.execute(conds[0], pending)
	assert.True(t, ErrStaleProposal.Is(err))
	err = e.approve(newOwner, pending)
	assert.True(t, ErrStaleProposal.Is(err))
}

func TestGovernanceUpdateSameSetKeepsSeq(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)

	// Re-submitting the identical owner set and threshold must not
	// invalidate pending proposals.
	pending := e.propose(conds[0], wallet)
	require.NoError(t, e.approve(conds[1], pending))

	update := e.propose(conds[0], wallet, Instruction{
		Target:  "vault/update",
		Payload: updatePayload(t, wallet, addrs, 2),
		Accounts: []AccountMeta{
			{Address: wallet, Writable: true, Authority: true},
		},
	})
	require.NoError(t, e.approve(conds[1], update))
	require.NoError(t, e.execute(conds[0], update))

	w, err := e.wallets.GetWallet(e.db, wallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), w.OwnerSetSeq)

	assert.NoError(t, e.execute(conds[0], pending))
}

func TestExecuteRollsBackOnInstructionFailure(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)

	// First instruction succeeds and mutates the wallet, second has no
	// handler registered yet.
	newSet := []strongbox.Address{addrs[0], addrs[1]}
	propAddr := e.propose(conds[0], wallet,
		Instruction{
			Target:  "vault/update",
			Payload: updatePayload(t, wallet, newSet, 2),
			Accounts: []AccountMeta{
				{Address: wallet, Writable: true, Authority: true},
			},
		},
		Instruction{Target: "boom", Payload: []byte("payload")},
	)
	require.NoError(t, e.approve(conds[1], propAddr))

	err := e.execute(conds[0], propAddr)
	require.Error(t, err)
	assert.True(t, errors.ErrNotFound.Is(err))

	// Nothing committed: wallet untouched, proposal still executable.
	w, err := e.wallets.GetWallet(e.db, wallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), w.OwnerSetSeq)
	assert.Equal(t, 3, len(w.Owners))
	proposal, err := e.proposals.GetProposal(e.db, propAddr)
	require.NoError(t, err)
	assert.False(t, proposal.Executed())

	// Once the missing module shows up the same proposal executes.
	e.rt.Handle("boom", &strongboxtest.Handler{})
	require.NoError(t, e.execute(conds[0], propAddr))
	w, err = e.wallets.GetWallet(e.db, wallet)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), w.OwnerSetSeq)
	assert.Equal(t, 2, len(w.Owners))
}

func TestReentrantExecuteRejected(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)

	// The first proposal of this wallet lives at a known address, so it
	// can carry an instruction executing itself.
	cond, _, err := ProposalCondition(wallet, 0)
	require.NoError(t, err)
	selfAddr := cond.Address()

	payload, err := (&ExecuteMsg{
		Metadata: &strongbox.Metadata{Schema: 1},
		Proposal: selfAddr,
	}).Marshal()
	require.NoError(t, err)

	propAddr := e.propose(conds[0], wallet, Instruction{
		Target:  "vault/execute",
		Payload: payload,
	})
	require.True(t, selfAddr.Equals(propAddr))
	require.NoError(t, e.approve(conds[1], propAddr))

	// The nested execution observes the terminal state that was written
	// before dispatch and the whole execution rolls back.
	err = e.execute(conds[0], propAddr)
	assert.True(t, ErrAlreadyExecuted.Is(err))

	proposal, err := e.proposals.GetProposal(e.db, propAddr)
	require.NoError(t, err)
	assert.False(t, proposal.Executed())
}

func TestSubWalletAuthority(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)

	subCond, _, err := SubWalletCondition(wallet, 7)
	require.NoError(t, err)

	instr := Instruction{
		Target:  "ping",
		Payload: []byte("payload"),
		Accounts: []AccountMeta{
			{Address: subCond.Address(), Authority: true},
		},
	}
	propAddr := e.propose(conds[0], wallet, instr)
	require.NoError(t, e.approve(conds[1], propAddr))

	// Without naming the sub-wallet index, the authority is not covered.
	err = e.execute(conds[0], propAddr)
	assert.True(t, ErrInvalidInstruction.Is(err))

	assert.NoError(t, e.execute(conds[0], propAddr, 7))
}

func TestForeignAuthorityRejected(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)

	propAddr := e.propose(conds[0], wallet, Instruction{
		Target:  "ping",
		Payload: []byte("payload"),
		Accounts: []AccountMeta{
			{Address: strongboxtest.NewCondition().Address(), Authority: true},
		},
	})
	require.NoError(t, e.approve(conds[1], propAddr))

	err := e.execute(conds[0], propAddr, 1, 2, 3)
	assert.True(t, ErrInvalidInstruction.Is(err))
	assert.Equal(t, 0, e.ping.DeliverCallCount())
}

func TestUpdateWalletRequiresWalletCondition(t *testing.T) {
	e := newEnv(t)
	conds, addrs := threeOwners()
	wallet := e.createWallet(addrs, 2, 0)

	// Even an owner signing directly is refused; only the wallet's own
	// condition, asserted by the execution delegate, qualifies.
	_, err := e.deliver(conds[0], &UpdateWalletMsg{
		Metadata:  &strongbox.Metadata{Schema: 1},
		Wallet:    wallet,
		Owners:    addrs[:2],
		Threshold: 1,
	})
	assert.True(t, errors.ErrUnauthorized.Is(err))
}

func TestUpdateWalletCapacity(t *testing.T) {
	e := newEnv(t)
	_, addrs := threeOwners()

	res, err := e.deliver(strongboxtest.NewCondition(), &CreateWalletMsg{
		Metadata:  &strongbox.Metadata{Schema: 1},
		Seed:      []byte("small wallet"),
		Owners:    addrs,
		Threshold: 2,
		MaxOwners: 3,
	})
	require.NoError(t, err)
	wallet := strongbox.Address(res.Data)

	w, err := e.wallets.GetWallet(e.db, wallet)
	require.NoError(t, err)
	walletCond, err := w.Condition()
	require.NoError(t, err)

	// Call the handler directly with the wallet condition asserted, the
	// way the execution delegate would.
	h := UpdateWalletHandler{auth: Authenticate{}, wallets: e.wallets}
	ctx := withAuthority(e.ctx(), []strongbox.Condition{walletCond})

	tooMany := append(append([]strongbox.Address{}, addrs...), strongboxtest.NewCondition().Address())
	_, err = h.Deliver(ctx, e.db, &strongboxtest.Tx{Msg: &UpdateWalletMsg{
		Metadata:  &strongbox.Metadata{Schema: 1},
		Wallet:    wallet,
		Owners:    tooMany,
		Threshold: 2,
	}})
	assert.True(t, ErrInvalidConfiguration.Is(err))
}

func TestCheckReportsGas(t *testing.T) {
	e := newEnv(t)
	_, addrs := threeOwners()

	e.auth.Signer = strongboxtest.NewCondition()
	res, err := e.rt.Check(e.ctx(), e.db, &strongboxtest.Tx{Msg: &CreateWalletMsg{
		Metadata:  &strongbox.Metadata{Schema: 1},
		Seed:      []byte("gas check"),
		Owners:    addrs,
		Threshold: 2,
	}})
	require.NoError(t, err)
	assert.Equal(t, createWalletCost, res.GasAllocated)
}
