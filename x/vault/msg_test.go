package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/strongboxtest"
)

func TestCreateWalletMsgValidate(t *testing.T) {
	valid := func() *CreateWalletMsg {
		return &CreateWalletMsg{
			Metadata:  &strongbox.Metadata{Schema: 1},
			Seed:      []byte("my wallet"),
			Owners:    []strongbox.Address{strongboxtest.NewCondition().Address(), strongboxtest.NewCondition().Address()},
			Threshold: 1,
		}
	}

	cases := map[string]struct {
		mod     func(*CreateWalletMsg)
		wantErr bool
	}{
		"valid":                   {mod: func(*CreateWalletMsg) {}},
		"explicit max owners":     {mod: func(m *CreateWalletMsg) { m.MaxOwners = 5 }},
		"missing metadata":        {mod: func(m *CreateWalletMsg) { m.Metadata = nil }, wantErr: true},
		"missing seed":            {mod: func(m *CreateWalletMsg) { m.Seed = nil }, wantErr: true},
		"no owners":               {mod: func(m *CreateWalletMsg) { m.Owners = nil }, wantErr: true},
		"zero threshold":          {mod: func(m *CreateWalletMsg) { m.Threshold = 0 }, wantErr: true},
		"threshold above owners":  {mod: func(m *CreateWalletMsg) { m.Threshold = 3 }, wantErr: true},
		"max owners above limit":  {mod: func(m *CreateWalletMsg) { m.MaxOwners = maxOwnersAllowed + 1 }, wantErr: true},
		"owners above max owners": {mod: func(m *CreateWalletMsg) { m.MaxOwners = 1 }, wantErr: true},
		"negative delay":          {mod: func(m *CreateWalletMsg) { m.MinimumDelay = -1 }, wantErr: true},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			msg := valid()
			tc.mod(msg)
			err := msg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateProposalMsgValidate(t *testing.T) {
	valid := func() *CreateProposalMsg {
		return &CreateProposalMsg{
			Metadata: &strongbox.Metadata{Schema: 1},
			Wallet:   strongboxtest.NewCondition().Address(),
			Instructions: []Instruction{
				{Target: "ping", Payload: []byte("data")},
			},
		}
	}

	cases := map[string]struct {
		mod     func(*CreateProposalMsg)
		wantErr bool
	}{
		"valid":            {mod: func(*CreateProposalMsg) {}},
		"with eta":         {mod: func(m *CreateProposalMsg) { m.Eta = 1234567890 }},
		"missing metadata": {mod: func(m *CreateProposalMsg) { m.Metadata = nil }, wantErr: true},
		"missing wallet":   {mod: func(m *CreateProposalMsg) { m.Wallet = nil }, wantErr: true},
		"no instructions":  {mod: func(m *CreateProposalMsg) { m.Instructions = nil }, wantErr: true},
		"instruction without target": {
			mod:     func(m *CreateProposalMsg) { m.Instructions[0].Target = "" },
			wantErr: true,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			msg := valid()
			tc.mod(msg)
			err := msg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProposalReferenceMsgsValidate(t *testing.T) {
	proposal := strongboxtest.NewCondition().Address()
	meta := &strongbox.Metadata{Schema: 1}

	assert.NoError(t, (&ApproveMsg{Metadata: meta, Proposal: proposal}).Validate())
	assert.NoError(t, (&UnapproveMsg{Metadata: meta, Proposal: proposal}).Validate())
	assert.NoError(t, (&ExecuteMsg{Metadata: meta, Proposal: proposal}).Validate())

	assert.Error(t, (&ApproveMsg{Metadata: meta}).Validate())
	assert.Error(t, (&UnapproveMsg{Metadata: meta}).Validate())
	assert.Error(t, (&ExecuteMsg{Metadata: meta}).Validate())
	assert.Error(t, (&ApproveMsg{Proposal: proposal}).Validate())
}

func TestUpdateWalletMsgValidate(t *testing.T) {
	valid := func() *UpdateWalletMsg {
		return &UpdateWalletMsg{
			Metadata:  &strongbox.Metadata{Schema: 1},
			Wallet:    strongboxtest.NewCondition().Address(),
			Owners:    []strongbox.Address{strongboxtest.NewCondition().Address()},
			Threshold: 1,
		}
	}

	cases := map[string]struct {
		mod     func(*UpdateWalletMsg)
		wantErr bool
	}{
		"valid":            {mod: func(*UpdateWalletMsg) {}},
		"missing metadata": {mod: func(m *UpdateWalletMsg) { m.Metadata = nil }, wantErr: true},
		"missing wallet":   {mod: func(m *UpdateWalletMsg) { m.Wallet = nil }, wantErr: true},
		"no owners":        {mod: func(m *UpdateWalletMsg) { m.Owners = nil }, wantErr: true},
		"zero threshold":   {mod: func(m *UpdateWalletMsg) { m.Threshold = 0 }, wantErr: true},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			msg := valid()
			tc.mod(msg)
			err := msg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMsgPaths(t *testing.T) {
	assert.Equal(t, "vault/create", (&CreateWalletMsg{}).Path())
	assert.Equal(t, "vault/propose", (&CreateProposalMsg{}).Path())
	assert.Equal(t, "vault/approve", (&ApproveMsg{}).Path())
	assert.Equal(t, "vault/unapprove", (&UnapproveMsg{}).Path())
	assert.Equal(t, "vault/execute", (&ExecuteMsg{}).Path())
	assert.Equal(t, "vault/update", (&UpdateWalletMsg{}).Path())
}
