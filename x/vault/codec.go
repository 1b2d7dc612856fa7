package vault

import (
	amino "github.com/tendermint/go-amino"

	"github.com/keyless-one/strongbox"
)

// cdc is the codec used for the binary representation of all persisted
// models and wire messages of this package.
var cdc = amino.NewCodec()

// Wallet is the configuration record of a shared account. It is stored
// under its derived address.
type Wallet struct {
	Metadata *strongbox.Metadata `json:"metadata"`
	// Seed is the caller supplied base identity the wallet address was
	// derived from. Together with Bump it lets the engine reproduce the
	// wallet condition, which is the only way to authorize actions on
	// the wallet address.
	Seed []byte `json:"seed"`
	// Bump is the salt value cached from the derivation search.
	Bump uint8 `json:"bump"`
	// Owners are the identities with standing to propose and approve.
	// The order is significant: proposal approval slots are indexed by
	// the owner position at proposal creation time.
	Owners []strongbox.Address `json:"owners"`
	// Threshold is the minimum approval count required before execution
	// is permitted.
	Threshold uint32 `json:"threshold"`
	// MinimumDelay is the baseline time-lock applied to every proposal.
	MinimumDelay strongbox.UnixDuration `json:"minimum_delay"`
	// MaxOwners is the owner capacity fixed at creation time. Governance
	// updates must fit within it.
	MaxOwners uint32 `json:"max_owners"`
	// OwnerSetSeq increments whenever Owners or Threshold change.
	// Proposals snapshot it and become permanently unexecutable once it
	// moves.
	OwnerSetSeq uint64 `json:"owner_set_seq"`
	// ProposalCount seeds new proposal addresses. Monotonic, never
	// reused.
	ProposalCount uint64 `json:"proposal_count"`
}

func (w *Wallet) GetMetadata() *strongbox.Metadata {
	return w.Metadata
}

func (w *Wallet) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(w)
}

func (w *Wallet) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, w)
}

// Proposal is a single pending or finalized action of a wallet. It is
// stored under its own derived address, seeded by the wallet address and
// the proposal index.
type Proposal struct {
	Metadata *strongbox.Metadata `json:"metadata"`
	// Wallet is the owning wallet address. Immutable back-reference.
	Wallet strongbox.Address `json:"wallet"`
	// Index is the wallet's ProposalCount value at creation time.
	Index uint64 `json:"index"`
	// Bump is the salt cached from this proposal's address derivation.
	Bump uint8 `json:"bump"`
	// Proposer is the owner that created this proposal.
	Proposer strongbox.Address `json:"proposer"`
	// Instructions are replayed verbatim by the execution delegate.
	Instructions []Instruction `json:"instructions"`
	// Approvals has one slot per owner position at creation time.
	Approvals []bool `json:"approvals"`
	// OwnerSetSeq is the wallet's owner set sequence at creation time.
	OwnerSetSeq uint64 `json:"owner_set_seq"`
	// CreatedAt anchors the minimum delay time-lock.
	CreatedAt strongbox.UnixTime `json:"created_at"`
	// Eta is the earliest explicit execution time. Zero means no
	// explicit schedule; the minimum delay still applies.
	Eta strongbox.UnixTime `json:"eta"`
	// Executor and ExecutedAt are set exactly once, on successful
	// execution.
	Executor   strongbox.Address  `json:"executor"`
	ExecutedAt strongbox.UnixTime `json:"executed_at"`
}

func (p *Proposal) GetMetadata() *strongbox.Metadata {
	return p.Metadata
}

func (p *Proposal) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(p)
}

func (p *Proposal) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, p)
}

// Instruction is one opaque sub-instruction of a proposal: a target module
// path, the accounts it references and an opaque payload the target module
// interprets on its own.
type Instruction struct {
	// Target is the module path the instruction is routed to.
	Target string `json:"target"`
	// Accounts lists the referenced accounts in order.
	Accounts []AccountMeta `json:"accounts"`
	// Payload is passed to the target module verbatim.
	Payload []byte `json:"payload"`
}

// AccountMeta references a single account an instruction touches.
type AccountMeta struct {
	Address strongbox.Address `json:"address"`
	// Writable marks accounts the instruction intends to mutate.
	Writable bool `json:"writable"`
	// Authority marks accounts whose authority the wallet must assert.
	// Only addresses derivable from the wallet's seed material qualify.
	Authority bool `json:"authority"`
}

// CreateWalletMsg allocates a new wallet at the address derived from Seed.
type CreateWalletMsg struct {
	Metadata     *strongbox.Metadata    `json:"metadata"`
	Seed         []byte                 `json:"seed"`
	Owners       []strongbox.Address    `json:"owners"`
	Threshold    uint32                 `json:"threshold"`
	MinimumDelay strongbox.UnixDuration `json:"minimum_delay"`
	MaxOwners    uint32                 `json:"max_owners"`
}

func (msg *CreateWalletMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(msg)
}

func (msg *CreateWalletMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, msg)
}

// CreateProposalMsg submits a new proposal for the given wallet. The main
// signer is the proposer and must be an owner. Submission counts as the
// proposer's approval.
type CreateProposalMsg struct {
	Metadata     *strongbox.Metadata `json:"metadata"`
	Wallet       strongbox.Address   `json:"wallet"`
	Instructions []Instruction       `json:"instructions"`
	// Eta optionally schedules execution no earlier than this time. It
	// must respect the wallet's minimum delay. Zero means unscheduled.
	Eta strongbox.UnixTime `json:"eta"`
}

func (msg *CreateProposalMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(msg)
}

func (msg *CreateProposalMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, msg)
}

// ApproveMsg records the main signer's approval on a proposal.
type ApproveMsg struct {
	Metadata *strongbox.Metadata `json:"metadata"`
	Proposal strongbox.Address   `json:"proposal"`
}

func (msg *ApproveMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(msg)
}

func (msg *ApproveMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, msg)
}

// UnapproveMsg clears the main signer's approval on a proposal.
type UnapproveMsg struct {
	Metadata *strongbox.Metadata `json:"metadata"`
	Proposal strongbox.Address   `json:"proposal"`
}

func (msg *UnapproveMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(msg)
}

func (msg *UnapproveMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, msg)
}

// ExecuteMsg triggers execution of a proposal that met its threshold and
// time-lock. Any signer may execute.
type ExecuteMsg struct {
	Metadata *strongbox.Metadata `json:"metadata"`
	Proposal strongbox.Address   `json:"proposal"`
	// SubWalletIndexes names the sub-wallet authorities the instructions
	// need, in addition to the wallet itself. The engine re-derives the
	// conditions; the caller only supplies the indexes.
	SubWalletIndexes []uint64 `json:"sub_wallet_indexes"`
}

func (msg *ExecuteMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(msg)
}

func (msg *ExecuteMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, msg)
}

// UpdateWalletMsg changes a wallet's owner set, threshold or minimum delay.
// Only the wallet's own condition can authorize it, which means it can only
// take effect as a sub-instruction of an executed proposal.
type UpdateWalletMsg struct {
	Metadata     *strongbox.Metadata    `json:"metadata"`
	Wallet       strongbox.Address      `json:"wallet"`
	Owners       []strongbox.Address    `json:"owners"`
	Threshold    uint32                 `json:"threshold"`
	MinimumDelay strongbox.UnixDuration `json:"minimum_delay"`
}

func (msg *UpdateWalletMsg) Marshal() ([]byte, error) {
	return cdc.MarshalBinaryBare(msg)
}

func (msg *UpdateWalletMsg) Unmarshal(raw []byte) error {
	return cdc.UnmarshalBinaryBare(raw, msg)
}
