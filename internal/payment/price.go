package payment

import (
	"math/big"
)

// PriceFeed gives the usd price of one whole token, in the same units as whitelist prices
type PriceFeed interface {
	Price(now uint64) (*big.Int, error)
}

// FixedPrice is a feed that never moves
type FixedPrice struct {
	Value *big.Int
}

func (f FixedPrice) Price(uint64) (*big.Int, error) {
	if f.Value == nil || f.Value.Sign() <= 0 {
		return nil, ErrInvalidPrice
	}
	return new(big.Int).Set(f.Value), nil
}

// amountFor is priceUSD * 10^decimals * chargedDuration / (tokenPriceUSD * period)
func amountFor(priceUSD *big.Int, decimals uint8, tokenPriceUSD *big.Int, chargedDuration uint64, period uint64) *big.Int {
	num := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	num.Mul(num, priceUSD)
	num.Mul(num, new(big.Int).SetUint64(chargedDuration))

	den := new(big.Int).Mul(tokenPriceUSD, new(big.Int).SetUint64(period))
	return num.Quo(num, den)
}
