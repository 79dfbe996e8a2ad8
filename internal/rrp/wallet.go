package rrp

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

const (
	airnodeWalletPath = "m/44'/60'/0'/0/0"
	sponsorWalletRoot = "m/44'/60'/0'/1"
)

// SponsorWalletPath splits the sponsor address into six 31-bit chunks, least significant first,
// so that every sponsor gets its own non-hardened branch of the airnode wallet
func SponsorWalletPath(sponsor common.Address) string {
	n := new(big.Int).SetBytes(sponsor.Bytes())
	mask := big.NewInt(1<<31 - 1)

	parts := []string{sponsorWalletRoot}
	for i := 0; i < 6; i++ {
		chunk := new(big.Int).Rsh(n, uint(31*i))
		parts = append(parts, chunk.And(chunk, mask).String())
	}
	return strings.Join(parts, "/")
}

// DeriveSponsorWallet returns the wallet an airnode uses to fulfil requests sponsored by sponsor
func DeriveSponsorWallet(mnemonic string, sponsor common.Address) (common.Address, error) {
	addr, _, err := deriveWallet(mnemonic, SponsorWalletPath(sponsor))
	return addr, err
}

// DeriveAirnodeWallet returns the airnode address and the key it signs responses with
func DeriveAirnodeWallet(mnemonic string) (common.Address, *ecdsa.PrivateKey, error) {
	return deriveWallet(mnemonic, airnodeWalletPath)
}

func deriveWallet(mnemonic string, path string) (common.Address, *ecdsa.PrivateKey, error) {
	wallet, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return common.Address{}, nil, err
	}

	derivationPath, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("path %s: %w", path, err)
	}

	account, err := wallet.Derive(derivationPath, false)
	if err != nil {
		return common.Address{}, nil, err
	}

	key, err := wallet.PrivateKey(account)
	if err != nil {
		return common.Address{}, nil, err
	}
	return account.Address, key, nil
}
