package vault

import (
	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/errors"
	"github.com/keyless-one/strongbox/migration"
	"github.com/keyless-one/strongbox/x"
)

const (
	createWalletCost int64 = 300
	proposalCost     int64 = 100
	approvalCost     int64 = 10
	executeCost      int64 = 500
	updateCost       int64 = 150
)

const (
	tagProposal = "proposal-id"
	tagWallet   = "wallet-id"
	tagAction   = "action"
)

// RegisterRoutes will instantiate and register all handlers in this
// package. The invoker is used by the execute handler to run delegated
// sub-instructions; pass a Delegate wrapping the application router. Any
// handler reachable through delegated invocation must chain Authenticate
// into its authenticator to honor the wallet conditions the execute
// handler asserts.
func RegisterRoutes(r strongbox.Registry, auth x.Authenticator, inv Invoker) {
	wallets := NewWalletBucket()
	proposals := NewProposalBucket()

	r.Handle(pathCreateWallet, CreateWalletHandler{auth: auth, wallets: wallets})
	r.Handle(pathCreateProposal, CreateProposalHandler{auth: auth, wallets: wallets, proposals: proposals})
	r.Handle(pathApprove, ApprovalHandler{auth: auth, wallets: wallets, proposals: proposals, value: true})
	r.Handle(pathUnapprove, ApprovalHandler{auth: auth, wallets: wallets, proposals: proposals, value: false})
	r.Handle(pathExecute, ExecuteHandler{auth: auth, wallets: wallets, proposals: proposals, delegate: inv})
	r.Handle(pathUpdateWallet, UpdateWalletHandler{auth: auth, wallets: wallets})
}

// vaultMsg is the common shape of all messages this package processes.
type vaultMsg interface {
	strongbox.Msg
	migration.Migratable
}

// loadMsg materializes the transaction message into dest. A message may
// arrive directly from a signer or as an opaque delegated payload, so the
// serialized bytes are the contract, not the Go type.
func loadMsg(tx strongbox.Tx, dest vaultMsg) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "cannot get message")
	}
	raw, err := msg.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot serialize message")
	}
	if err := dest.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "cannot deserialize into %T", dest)
	}
	if err := migration.Apply(dest); err != nil {
		return errors.Wrap(err, "migrate message")
	}
	if err := dest.Validate(); err != nil {
		return errors.Wrap(err, "invalid message")
	}
	return nil
}

// CreateWalletHandler allocates a wallet record at its derived address.
type CreateWalletHandler struct {
	auth    x.Authenticator
	wallets WalletBucket
}

var _ strongbox.Handler = CreateWalletHandler{}

func (h CreateWalletHandler) Check(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &strongbox.CheckResult{GasAllocated: createWalletCost}, nil
}

func (h CreateWalletHandler) Deliver(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	cond, bump, err := WalletCondition(msg.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "derive wallet")
	}
	addr := cond.Address()
	switch exists, err := h.wallets.Has(db, addr); {
	case err != nil:
		return nil, errors.Wrap(err, "wallet lookup")
	case exists:
		return nil, errors.Wrapf(errors.ErrDuplicate, "wallet %s", addr)
	}

	maxOwners := msg.MaxOwners
	if maxOwners == 0 {
		maxOwners = maxOwnersAllowed
	}
	wallet := &Wallet{
		Metadata:     &strongbox.Metadata{Schema: 1},
		Seed:         msg.Seed,
		Bump:         bump,
		Owners:       msg.Owners,
		Threshold:    msg.Threshold,
		MinimumDelay: msg.MinimumDelay,
		MaxOwners:    maxOwners,
	}
	if err := h.wallets.Save(db, wallet); err != nil {
		return nil, errors.Wrap(err, "save wallet")
	}
	return &strongbox.DeliverResult{
		Data: addr,
		Tags: []strongbox.Tag{
			{Key: []byte(tagWallet), Value: addr},
			{Key: []byte(tagAction), Value: []byte("create")},
		},
	}, nil
}

func (h CreateWalletHandler) validate(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*CreateWalletMsg, error) {
	var msg CreateWalletMsg
	if err := loadMsg(tx, &msg); err != nil {
		return nil, err
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	return &msg, nil
}

// CreateProposalHandler records a new proposal. The main signer is the
// proposer and the proposer's approval slot starts set: submitting a
// proposal is an implicit approval.
type CreateProposalHandler struct {
	auth      x.Authenticator
	wallets   WalletBucket
	proposals ProposalBucket
}

var _ strongbox.Handler = CreateProposalHandler{}

func (h CreateProposalHandler) Check(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &strongbox.CheckResult{GasAllocated: proposalCost}, nil
}

func (h CreateProposalHandler) Deliver(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.DeliverResult, error) {
	msg, wallet, proposer, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	blockTime, err := strongbox.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}

	index := wallet.ProposalCount
	cond, bump, err := ProposalCondition(msg.Wallet, index)
	if err != nil {
		return nil, errors.Wrap(err, "derive proposal")
	}

	approvals := make([]bool, len(wallet.Owners))
	approvals[wallet.OwnerIndex(proposer)] = true

	proposal := &Proposal{
		Metadata:     &strongbox.Metadata{Schema: 1},
		Wallet:       msg.Wallet,
		Index:        index,
		Bump:         bump,
		Proposer:     proposer,
		Instructions: msg.Instructions,
		Approvals:    approvals,
		OwnerSetSeq:  wallet.OwnerSetSeq,
		CreatedAt:    strongbox.AsUnixTime(blockTime),
		Eta:          msg.Eta,
	}
	if err := h.proposals.Save(db, proposal); err != nil {
		return nil, errors.Wrap(err, "save proposal")
	}

	wallet.ProposalCount++
	if err := h.wallets.Save(db, wallet); err != nil {
		return nil, errors.Wrap(err, "save wallet")
	}

	addr := cond.Address()
	return &strongbox.DeliverResult{
		Data: addr,
		Tags: []strongbox.Tag{
			{Key: []byte(tagProposal), Value: addr},
			{Key: []byte(tagAction), Value: []byte("propose")},
		},
	}, nil
}

func (h CreateProposalHandler) validate(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*CreateProposalMsg, *Wallet, strongbox.Address, error) {
	var msg CreateProposalMsg
	if err := loadMsg(tx, &msg); err != nil {
		return nil, nil, nil, err
	}
	wallet, err := h.wallets.GetWallet(db, msg.Wallet)
	if err != nil {
		return nil, nil, nil, err
	}
	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	proposer := signer.Address()
	if wallet.OwnerIndex(proposer) == -1 {
		return nil, nil, nil, errors.Wrapf(ErrInvalidOwner, "proposer %s", proposer)
	}
	if !msg.Eta.IsZero() {
		blockTime, err := strongbox.BlockTime(ctx)
		if err != nil {
			return nil, nil, nil, errors.Wrap(err, "block time")
		}
		earliest := strongbox.AsUnixTime(blockTime).Add(wallet.MinimumDelay.Duration())
		if msg.Eta < earliest {
			return nil, nil, nil, errors.Wrapf(ErrInvalidSchedule, "eta before %s", earliest)
		}
	}
	return &msg, wallet, proposer, nil
}

// ApprovalHandler records or clears a single owner's approval. Both
// operations are idempotent: setting a slot to its current value is a
// no-op, not an error.
type ApprovalHandler struct {
	auth      x.Authenticator
	wallets   WalletBucket
	proposals ProposalBucket
	// value is what the signer's approval slot is set to. True for
	// vault/approve, false for vault/unapprove.
	value bool
}

var _ strongbox.Handler = ApprovalHandler{}

func (h ApprovalHandler) Check(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &strongbox.CheckResult{GasAllocated: approvalCost}, nil
}

func (h ApprovalHandler) Deliver(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.DeliverResult, error) {
	proposal, ownerIndex, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	proposal.Approvals[ownerIndex] = h.value
	if err := h.proposals.Save(db, proposal); err != nil {
		return nil, errors.Wrap(err, "save proposal")
	}
	addr, err := proposal.Address()
	if err != nil {
		return nil, errors.Wrap(err, "proposal address")
	}
	action := "approve"
	if !h.value {
		action = "unapprove"
	}
	return &strongbox.DeliverResult{
		Data: addr,
		Tags: []strongbox.Tag{
			{Key: []byte(tagProposal), Value: addr},
			{Key: []byte(tagAction), Value: []byte(action)},
		},
	}, nil
}

func (h ApprovalHandler) validate(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*Proposal, int, error) {
	var proposalAddr strongbox.Address
	if h.value {
		var msg ApproveMsg
		if err := loadMsg(tx, &msg); err != nil {
			return nil, 0, err
		}
		proposalAddr = msg.Proposal
	} else {
		var msg UnapproveMsg
		if err := loadMsg(tx, &msg); err != nil {
			return nil, 0, err
		}
		proposalAddr = msg.Proposal
	}

	proposal, err := h.proposals.GetProposal(db, proposalAddr)
	if err != nil {
		return nil, 0, err
	}
	wallet, err := h.wallets.GetWallet(db, proposal.Wallet)
	if err != nil {
		return nil, 0, err
	}

	// Terminal state first: an executed proposal must reject any
	// mutation deterministically.
	if proposal.Executed() {
		return nil, 0, errors.Wrapf(ErrAlreadyExecuted, "at %s", proposal.ExecutedAt)
	}
	if proposal.OwnerSetSeq != wallet.OwnerSetSeq {
		return nil, 0, errors.Wrapf(ErrStaleProposal, "owner set moved to %d", wallet.OwnerSetSeq)
	}

	signer := x.MainSigner(ctx, h.auth)
	if signer == nil {
		return nil, 0, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	ownerIndex := wallet.OwnerIndex(signer.Address())
	if ownerIndex == -1 {
		return nil, 0, errors.Wrapf(ErrInvalidOwner, "signer %s", signer.Address())
	}
	// Approval slots are positional against the creation time owner
	// set. The sequence check above guarantees both sets are the same.
	if ownerIndex >= len(proposal.Approvals) {
		return nil, 0, errors.Wrap(errors.ErrHuman, "approval slots out of sync with owner set")
	}
	return proposal, ownerIndex, nil
}

// ExecuteHandler runs an approved proposal. Any signer may trigger it; the
// permission to act comes from the recorded approvals, not from the
// executor.
type ExecuteHandler struct {
	auth      x.Authenticator
	wallets   WalletBucket
	proposals ProposalBucket
	delegate  Invoker
}

var _ strongbox.Handler = ExecuteHandler{}

func (h ExecuteHandler) Check(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &strongbox.CheckResult{GasAllocated: executeCost}, nil
}

func (h ExecuteHandler) Deliver(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.DeliverResult, error) {
	msg, wallet, proposal, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	cdb, ok := db.(strongbox.CacheableKVStore)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "store does not support atomic execution")
	}
	blockTime, err := strongbox.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}

	conds, err := h.authorities(wallet, proposal, msg.SubWalletIndexes)
	if err != nil {
		return nil, err
	}

	executor := x.MainSigner(ctx, h.auth).Address()

	// All writes of the execution, including the terminal proposal
	// state, go through a single cache wrap. Either everything below
	// commits or nothing does.
	cache := cdb.CacheWrap()

	// Mark executed before dispatching so that a sub-instruction
	// calling back into this engine observes the terminal state.
	proposal.Executor = executor
	proposal.ExecutedAt = strongbox.AsUnixTime(blockTime)
	if err := h.proposals.Save(cache, proposal); err != nil {
		cache.Discard()
		return nil, errors.Wrap(err, "save proposal")
	}

	ctx = withAuthority(ctx, conds)
	for i, instr := range proposal.Instructions {
		if _, err := h.delegate.Invoke(ctx, cache, instr); err != nil {
			cache.Discard()
			return nil, errors.Wrapf(err, "instruction #%d", i)
		}
	}
	if err := cache.Write(); err != nil {
		return nil, errors.Wrap(err, "commit execution")
	}

	addr, err := proposal.Address()
	if err != nil {
		return nil, errors.Wrap(err, "proposal address")
	}
	return &strongbox.DeliverResult{
		Data: addr,
		Tags: []strongbox.Tag{
			{Key: []byte(tagProposal), Value: addr},
			{Key: []byte(tagAction), Value: []byte("execute")},
		},
	}, nil
}

// validate applies the execution gates in a fixed order: terminal state,
// owner set staleness, quorum, time-lock. The cheap terminal checks come
// first; the time-lock comes last because "not yet" is the expected
// answer, not a hard failure.
func (h ExecuteHandler) validate(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*ExecuteMsg, *Wallet, *Proposal, error) {
	var msg ExecuteMsg
	if err := loadMsg(tx, &msg); err != nil {
		return nil, nil, nil, err
	}
	proposal, err := h.proposals.GetProposal(db, msg.Proposal)
	if err != nil {
		return nil, nil, nil, err
	}
	wallet, err := h.wallets.GetWallet(db, proposal.Wallet)
	if err != nil {
		return nil, nil, nil, err
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, nil, nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}

	if proposal.Executed() {
		return nil, nil, nil, errors.Wrapf(ErrAlreadyExecuted, "at %s", proposal.ExecutedAt)
	}
	if proposal.OwnerSetSeq != wallet.OwnerSetSeq {
		return nil, nil, nil, errors.Wrapf(ErrStaleProposal, "owner set moved to %d", wallet.OwnerSetSeq)
	}
	if got := proposal.ApprovalCount(); got < int(wallet.Threshold) {
		return nil, nil, nil, errors.Wrapf(ErrNotEnoughSigners, "have %d of %d", got, wallet.Threshold)
	}
	blockTime, err := strongbox.BlockTime(ctx)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "block time")
	}
	if readyAt := proposal.ReadyAt(wallet.MinimumDelay); strongbox.AsUnixTime(blockTime) < readyAt {
		return nil, nil, nil, errors.Wrapf(ErrNotReady, "ready at %s", readyAt)
	}
	return &msg, wallet, proposal, nil
}

// authorities derives the conditions asserted during execution: the wallet
// itself plus any requested sub-wallets. Every authority-flagged account
// of every instruction must be covered, or the execution is refused before
// any instruction runs.
func (h ExecuteHandler) authorities(wallet *Wallet, proposal *Proposal, subIndexes []uint64) ([]strongbox.Condition, error) {
	walletCond, err := wallet.Condition()
	if err != nil {
		return nil, errors.Wrap(err, "wallet condition")
	}
	conds := []strongbox.Condition{walletCond}
	for _, idx := range subIndexes {
		c, _, err := SubWalletCondition(proposal.Wallet, idx)
		if err != nil {
			return nil, errors.Wrapf(err, "sub-wallet %d", idx)
		}
		conds = append(conds, c)
	}

	for i, instr := range proposal.Instructions {
		for _, acct := range instr.Accounts {
			if !acct.Authority {
				continue
			}
			if !condsCover(conds, acct.Address) {
				return nil, errors.Wrapf(ErrInvalidInstruction,
					"instruction #%d: authority %s is not derivable from this wallet", i, acct.Address)
			}
		}
	}
	return conds, nil
}

func condsCover(conds []strongbox.Condition, addr strongbox.Address) bool {
	for _, c := range conds {
		if addr.Equals(c.Address()) {
			return true
		}
	}
	return false
}

// UpdateWalletHandler changes the owner set, threshold or minimum delay of
// an existing wallet. Only the wallet's own derived condition authorizes
// it, so the message can only take effect as a sub-instruction of an
// executed proposal.
type UpdateWalletHandler struct {
	auth    x.Authenticator
	wallets WalletBucket
}

var _ strongbox.Handler = UpdateWalletHandler{}

func (h UpdateWalletHandler) Check(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &strongbox.CheckResult{GasAllocated: updateCost}, nil
}

func (h UpdateWalletHandler) Deliver(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*strongbox.DeliverResult, error) {
	msg, wallet, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	changed := wallet.Threshold != msg.Threshold || !sameOwners(wallet.Owners, msg.Owners)
	wallet.Owners = msg.Owners
	wallet.Threshold = msg.Threshold
	wallet.MinimumDelay = msg.MinimumDelay
	if changed {
		wallet.OwnerSetSeq++
	}
	if err := h.wallets.Save(db, wallet); err != nil {
		return nil, errors.Wrap(err, "save wallet")
	}
	return &strongbox.DeliverResult{
		Data: msg.Wallet,
		Tags: []strongbox.Tag{
			{Key: []byte(tagWallet), Value: msg.Wallet},
			{Key: []byte(tagAction), Value: []byte("update")},
		},
	}, nil
}

func (h UpdateWalletHandler) validate(ctx strongbox.Context, db strongbox.KVStore, tx strongbox.Tx) (*UpdateWalletMsg, *Wallet, error) {
	var msg UpdateWalletMsg
	if err := loadMsg(tx, &msg); err != nil {
		return nil, nil, err
	}
	wallet, err := h.wallets.GetWallet(db, msg.Wallet)
	if err != nil {
		return nil, nil, err
	}
	if !h.auth.HasAddress(ctx, msg.Wallet) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "wallet condition required")
	}
	if uint32(len(msg.Owners)) > wallet.MaxOwners {
		return nil, nil, errors.Wrapf(ErrInvalidConfiguration, "more than %d owners", wallet.MaxOwners)
	}
	return &msg, wallet, nil
}

func sameOwners(a, b []strongbox.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}
