package lib

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// Packer builds abi.encodePacked byte strings. Static types are written with their
// natural width, uint256 is left padded to 32 bytes, dynamic bytes are appended as is
type Packer struct {
	buf []byte
}

func Packed() *Packer {
	return &Packer{}
}

func (p *Packer) Address(a common.Address) *Packer {
	p.buf = append(p.buf, a.Bytes()...)
	return p
}

func (p *Packer) Hash(h common.Hash) *Packer {
	p.buf = append(p.buf, h.Bytes()...)
	return p
}

// Uint256 panics on negative values
func (p *Packer) Uint256(v *big.Int) *Packer {
	if v.Sign() < 0 {
		panic("negative uint256")
	}
	p.buf = append(p.buf, math.U256Bytes(new(big.Int).Set(v))...)
	return p
}

func (p *Packer) Uint64(v uint64) *Packer {
	return p.Uint256(new(big.Int).SetUint64(v))
}

func (p *Packer) Bytes4(b [4]byte) *Packer {
	p.buf = append(p.buf, b[:]...)
	return p
}

func (p *Packer) Bytes(b []byte) *Packer {
	p.buf = append(p.buf, b...)
	return p
}

func (p *Packer) String(s string) *Packer {
	p.buf = append(p.buf, s...)
	return p
}

func (p *Packer) Encoded() []byte {
	return p.buf
}

func (p *Packer) Keccak() common.Hash {
	return crypto.Keccak256Hash(p.buf)
}
