package httphandlers

import (
	"net/http"

	"github.com/Lumerin-protocol/airnode-gate/internal/authorizer"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

const readersAuthorizer = "readers"

func (h *HTTPHandler) authorizerFor(name string) *authorizer.Authorizer {
	if name == readersAuthorizer {
		return h.Readers
	}
	return h.Requesters
}

func (h *HTTPHandler) GetWhitelistStatus(ctx *gin.Context) {
	target, err := parseWhitelistTarget(WhitelistTarget{
		Airnode:    ctx.Param("airnode"),
		EndpointID: ctx.Param("endpoint"),
		Requester:  ctx.Param("requester"),
	})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	auth := h.authorizerFor(ctx.Query("authorizer"))

	var res WhitelistStatusResponse
	h.view(func() {
		status := auth.WhitelistStatus(target.res, target.requester)
		res = WhitelistStatusResponse{
			ExpirationTimestamp:      status.ExpirationTimestamp,
			IndefiniteWhitelistCount: status.IndefiniteWhitelistCount,
			IsAuthorized:             auth.IsAuthorized(target.res, target.requester, h.Ledger.Now()),
		}
	})
	ctx.JSON(http.StatusOK, res)
}

func (h *HTTPHandler) ExtendWhitelist(ctx *gin.Context) {
	var req WhitelistExpirationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	target, err := parseWhitelistTarget(req.WhitelistTarget)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	auth := h.authorizerFor(req.Authorizer)
	h.execute(ctx, func(tx *ledger.Tx) error {
		return auth.ExtendWhitelistExpiration(tx, target.res, target.requester, req.Expiration)
	})
}

func (h *HTTPHandler) SetWhitelist(ctx *gin.Context) {
	var req WhitelistExpirationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	target, err := parseWhitelistTarget(req.WhitelistTarget)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	auth := h.authorizerFor(req.Authorizer)
	h.execute(ctx, func(tx *ledger.Tx) error {
		return auth.SetWhitelistExpiration(tx, target.res, target.requester, req.Expiration)
	})
}

func (h *HTTPHandler) SetIndefiniteWhitelist(ctx *gin.Context) {
	var req IndefiniteWhitelistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	target, err := parseWhitelistTarget(req.WhitelistTarget)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	auth := h.authorizerFor(req.Authorizer)
	h.execute(ctx, func(tx *ledger.Tx) error {
		return auth.SetIndefiniteWhitelistStatus(tx, target.res, target.requester, req.Status)
	})
}

func (h *HTTPHandler) RevokeIndefiniteWhitelist(ctx *gin.Context) {
	var req RevokeIndefiniteWhitelistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	target, err := parseWhitelistTarget(req.WhitelistTarget)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	setter, err := parseAddress("setter", req.Setter)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	auth := h.authorizerFor(req.Authorizer)
	h.execute(ctx, func(tx *ledger.Tx) error {
		return auth.RevokeIndefiniteWhitelistStatus(tx, target.res, target.requester, setter)
	})
}

type whitelistTarget struct {
	res       authorizer.Resource
	requester common.Address
}

func parseWhitelistTarget(t WhitelistTarget) (whitelistTarget, error) {
	var (
		res whitelistTarget
		err error
	)
	if t.Airnode != "" {
		if res.res.Airnode, err = parseAddress("airnode", t.Airnode); err != nil {
			return res, err
		}
	}
	if res.res.EndpointID, err = parseHash("endpointId", t.EndpointID); err != nil {
		return res, err
	}
	if res.requester, err = parseAddress("requester", t.Requester); err != nil {
		return res, err
	}
	return res, nil
}
