package httphandlers

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/Lumerin-protocol/airnode-gate/internal/authorizer"
	"github.com/Lumerin-protocol/airnode-gate/internal/beacon"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/payment"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) GetBeacon(ctx *gin.Context) {
	id, err := parseHash("id", ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	var reader common.Address
	if s := ctx.Query("reader"); s != "" {
		if reader, err = parseAddress("reader", s); err != nil {
			h.writeError(ctx, err)
			return
		}
	}

	var b beacon.Beacon
	h.view(func() {
		b, err = h.Beacons.ReadBeacon(reader, id, h.Ledger.Now())
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, BeaconResponse{BeaconID: id.Hex(), Value: b.Value.String(), Timestamp: b.Timestamp})
}

func (h *HTTPHandler) RequestBeaconUpdate(ctx *gin.Context) {
	var req BeaconUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	templateID, err := parseHash("templateId", req.TemplateID)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	sponsor, err := parseAddress("sponsor", req.Sponsor)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	sponsorWallet, err := parseAddress("sponsorWallet", req.SponsorWallet)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	var res RequestIDResponse
	h.executeWithResult(ctx, &res, func(tx *ledger.Tx) error {
		id, err := h.Beacons.RequestBeaconUpdate(tx, templateID, sponsor, sponsorWallet)
		res.RequestID = id.Hex()
		return err
	})
}

func (h *HTTPHandler) GetTokenBalance(ctx *gin.Context) {
	account, err := parseAddress("account", ctx.Param("account"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	var balance *big.Int
	h.view(func() {
		balance = h.Token.BalanceOf(account)
	})
	ctx.JSON(http.StatusOK, TokenBalanceResponse{
		Token:   h.Token.Address(),
		Symbol:  h.Token.Symbol(),
		Account: account,
		Balance: balance.String(),
	})
}

func (h *HTTPHandler) ApproveToken(ctx *gin.Context) {
	account, amount, ok := h.bindTokenAmount(ctx)
	if !ok {
		return
	}
	h.execute(ctx, func(tx *ledger.Tx) error {
		return h.Token.Approve(tx, account, amount)
	})
}

func (h *HTTPHandler) TransferToken(ctx *gin.Context) {
	account, amount, ok := h.bindTokenAmount(ctx)
	if !ok {
		return
	}
	h.execute(ctx, func(tx *ledger.Tx) error {
		return h.Token.Transfer(tx, account, amount)
	})
}

// MintToken credits account with new tokens, only the token's minter may call it
func (h *HTTPHandler) MintToken(ctx *gin.Context) {
	account, amount, ok := h.bindTokenAmount(ctx)
	if !ok {
		return
	}
	h.execute(ctx, func(tx *ledger.Tx) error {
		return h.Token.Mint(tx, account, amount)
	})
}

func (h *HTTPHandler) bindTokenAmount(ctx *gin.Context) (common.Address, *big.Int, bool) {
	var req TokenAmountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return common.Address{}, nil, false
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		h.writeError(ctx, err)
		return common.Address{}, nil, false
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		h.writeError(ctx, err)
		return common.Address{}, nil, false
	}
	return account, amount, true
}

func (h *HTTPHandler) GetPaymentQuote(ctx *gin.Context) {
	req := PaymentRequest{
		ChainTag:   ctx.Query("chain"),
		Airnode:    ctx.Query("airnode"),
		EndpointID: ctx.Query("endpoint"),
		Requester:  ctx.Query("requester"),
	}
	duration, err := strconv.ParseUint(ctx.Query("duration"), 10, 64)
	if err != nil {
		h.writeError(ctx, ErrInvalidParam)
		return
	}
	req.DurationSeconds = duration

	res, requester, err := parsePayment(req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	var q payment.Quote
	h.view(func() {
		q, err = h.Whitelister.Quote(req.ChainTag, res, requester, duration, h.Ledger.Now())
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, quoteResponse(q))
}

func (h *HTTPHandler) MakePayment(ctx *gin.Context) {
	var req PaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	res, requester, err := parsePayment(req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	var quote QuoteResponse
	h.executeWithResult(ctx, &quote, func(tx *ledger.Tx) error {
		q, err := h.Whitelister.MakePayment(tx, req.ChainTag, res, requester, req.DurationSeconds)
		if err != nil {
			return err
		}
		quote = quoteResponse(q)
		return nil
	})
}

func parsePayment(req PaymentRequest) (authorizer.Resource, common.Address, error) {
	airnode, err := parseAddress("airnode", req.Airnode)
	if err != nil {
		return authorizer.Resource{}, common.Address{}, err
	}
	endpointID, err := parseHash("endpointId", req.EndpointID)
	if err != nil {
		return authorizer.Resource{}, common.Address{}, err
	}
	requester, err := parseAddress("requester", req.Requester)
	if err != nil {
		return authorizer.Resource{}, common.Address{}, err
	}
	return authorizer.Resource{Airnode: airnode, EndpointID: endpointID}, requester, nil
}

func quoteResponse(q payment.Quote) QuoteResponse {
	return QuoteResponse{
		Token:       q.Token,
		Amount:      q.Amount.String(),
		Destination: q.Destination,
		Expiration:  q.Expiration,
	}
}
