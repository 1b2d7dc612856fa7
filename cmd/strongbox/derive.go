package main

import (
	"encoding/hex"
	"os"

	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/keyless-one/strongbox"
	"github.com/keyless-one/strongbox/errors"
	"github.com/keyless-one/strongbox/x/vault"
)

// derivation is what every derive command prints. Addresses are shown in
// both encodings because on-ledger tooling wants hex while humans copy
// base58.
type derivation struct {
	Condition string `yaml:"condition"`
	Address   string `yaml:"address"`
	Base58    string `yaml:"base58"`
	Bump      uint8  `yaml:"bump"`
}

func printDerivation(cond strongbox.Condition, bump uint8) error {
	addr := cond.Address()
	return yaml.NewEncoder(os.Stdout).Encode(derivation{
		Condition: cond.String(),
		Address:   addr.String(),
		Base58:    addr.Base58(),
		Bump:      bump,
	})
}

func walletCmd() *cobra.Command {
	var seedHex string
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Derive a wallet address from its seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := hex.DecodeString(seedHex)
			if err != nil {
				return errors.Wrap(errors.ErrInput, "seed is not hex encoded")
			}
			cond, bump, err := vault.WalletCondition(seed)
			if err != nil {
				return err
			}
			return printDerivation(cond, bump)
		},
	}
	cmd.Flags().StringVar(&seedHex, "seed", "", "hex encoded wallet seed")
	return cmd
}

func proposalCmd() *cobra.Command {
	var walletAddr string
	var index uint64
	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Derive a proposal address from its wallet and index",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := strongbox.ParseAddress(walletAddr)
			if err != nil {
				return errors.Wrap(err, "wallet address")
			}
			cond, bump, err := vault.ProposalCondition(addr, index)
			if err != nil {
				return err
			}
			return printDerivation(cond, bump)
		},
	}
	cmd.Flags().StringVar(&walletAddr, "wallet", "", "hex encoded wallet address")
	cmd.Flags().Uint64Var(&index, "index", 0, "proposal index")
	return cmd
}

func subWalletCmd() *cobra.Command {
	var walletAddr string
	var index uint64
	cmd := &cobra.Command{
		Use:   "subwallet",
		Short: "Derive a sub-wallet address from its wallet and index",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := strongbox.ParseAddress(walletAddr)
			if err != nil {
				return errors.Wrap(err, "wallet address")
			}
			cond, bump, err := vault.SubWalletCondition(addr, index)
			if err != nil {
				return err
			}
			return printDerivation(cond, bump)
		},
	}
	cmd.Flags().StringVar(&walletAddr, "wallet", "", "hex encoded wallet address")
	cmd.Flags().Uint64Var(&index, "index", 0, "sub-wallet index")
	return cmd
}
