package httphandlers

import (
	"net/http"
	"strconv"

	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/rrp"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

const defaultEventsLimit = 100

func (h *HTTPHandler) GetEvents(ctx *gin.Context) {
	limit := defaultEventsLimit
	if s := ctx.Query("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l <= 0 {
			h.writeError(ctx, ErrInvalidParam)
			return
		}
		limit = l
	}
	logs := h.Ledger.Events().Recent(limit, ctx.QueryArray("name")...)
	ctx.JSON(http.StatusOK, gin.H{"events": logItems(logs)})
}

func (h *HTTPHandler) SetSponsorship(ctx *gin.Context) {
	var req SponsorshipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	requester, err := parseAddress("requester", req.Requester)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	h.execute(ctx, func(tx *ledger.Tx) error {
		h.Rrp.SetSponsorshipStatus(tx, requester, req.Status)
		return nil
	})
}

func (h *HTTPHandler) CreateTemplate(ctx *gin.Context) {
	var req CreateTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	airnode, err := parseAddress("airnode", req.Airnode)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	endpointID, err := parseHash("endpointId", req.EndpointID)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	params, err := parseBytes("parameters", req.Parameters)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	var res TemplateResponse
	h.executeWithResult(ctx, &res, func(tx *ledger.Tx) error {
		id, err := h.Rrp.CreateTemplate(tx, airnode, endpointID, params)
		res = TemplateResponse{TemplateID: id.Hex(), Airnode: airnode, EndpointID: endpointID, Parameters: params}
		return err
	})
}

func (h *HTTPHandler) GetTemplate(ctx *gin.Context) {
	id, err := parseHash("id", ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	var (
		t  rrp.Template
		ok bool
	)
	h.view(func() {
		t, ok = h.Rrp.Template(id)
	})
	if !ok {
		h.writeError(ctx, rrp.ErrTemplateNotFound)
		return
	}
	ctx.JSON(http.StatusOK, TemplateResponse{TemplateID: id.Hex(), Airnode: t.Airnode, EndpointID: t.EndpointID, Parameters: t.Parameters})
}

func (h *HTTPHandler) MakeRequest(ctx *gin.Context) {
	var req MakeRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	call, err := parseMakeRequest(req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	var res RequestIDResponse
	h.executeWithResult(ctx, &res, func(tx *ledger.Tx) error {
		var (
			id  common.Hash
			err error
		)
		if call.templateID != (common.Hash{}) {
			id, err = h.Rrp.MakeTemplateRequest(tx, call.templateID, call.sponsor, call.sponsorWallet, call.fulfillAddress, call.fulfillFunctionID, call.parameters)
		} else {
			id, err = h.Rrp.MakeFullRequest(tx, call.airnode, call.endpointID, call.sponsor, call.sponsorWallet, call.fulfillAddress, call.fulfillFunctionID, call.parameters)
		}
		res.RequestID = id.Hex()
		return err
	})
}

func (h *HTTPHandler) GetRequest(ctx *gin.Context) {
	id, err := parseHash("id", ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	var (
		req rrp.Request
		ok  bool
	)
	h.view(func() {
		req, ok = h.Rrp.PendingRequest(id)
	})
	if !ok {
		h.writeError(ctx, rrp.ErrUnknownRequest)
		return
	}
	ctx.JSON(http.StatusOK, PendingRequestResponse{
		Resource:          Resource{Self: h.selfLink("/requests/" + id.Hex())},
		RequestID:         id.Hex(),
		Requester:         req.Requester,
		Nonce:             req.Nonce,
		Airnode:           req.Airnode,
		TemplateID:        req.TemplateID,
		EndpointID:        req.EndpointID,
		Sponsor:           req.Sponsor,
		SponsorWallet:     req.SponsorWallet,
		FulfillAddress:    req.FulfillAddress,
		FulfillFunctionID: req.FulfillFunctionID[:],
		Parameters:        req.Parameters,
	})
}

func (h *HTTPHandler) FulfillRequest(ctx *gin.Context) {
	f, ok := h.bindFulfillment(ctx)
	if !ok {
		return
	}
	var res FulfillmentOutcomeResponse
	h.executeWithResult(ctx, &res, func(tx *ledger.Tx) error {
		outcome, err := h.Rrp.Fulfill(tx, f)
		res = outcomeResponse(outcome)
		return err
	})
}

// DryRunFulfillRequest reports what fulfilling would do without doing it
func (h *HTTPHandler) DryRunFulfillRequest(ctx *gin.Context) {
	f, ok := h.bindFulfillment(ctx)
	if !ok {
		return
	}
	outcome, err := h.Rrp.DryRunFulfill(caller(ctx), f)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, outcomeResponse(outcome))
}

func (h *HTTPHandler) FailRequest(ctx *gin.Context) {
	id, err := parseHash("id", ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	var req FailRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	airnode, err := parseAddress("airnode", req.Airnode)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	fulfillAddress, err := parseAddress("fulfillAddress", req.FulfillAddress)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	sel, err := parseSelector("fulfillFunctionId", req.FulfillFunctionID)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	h.execute(ctx, func(tx *ledger.Tx) error {
		return h.Rrp.Fail(tx, id, airnode, fulfillAddress, sel, req.ErrorMessage)
	})
}

func (h *HTTPHandler) GetSponsorWallet(ctx *gin.Context) {
	if h.AirnodeMnemonic == "" {
		ctx.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "sponsor wallet derivation is not configured"})
		return
	}
	sponsor, err := parseAddress("sponsor", ctx.Param("sponsor"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	wallet, err := rrp.DeriveSponsorWallet(h.AirnodeMnemonic, sponsor)
	if err != nil {
		h.log.Errorf("sponsor wallet derivation: %s", err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "cannot derive sponsor wallet"})
		return
	}
	ctx.JSON(http.StatusOK, SponsorWalletResponse{
		Sponsor:        sponsor,
		SponsorWallet:  wallet,
		DerivationPath: rrp.SponsorWalletPath(sponsor),
	})
}

func (h *HTTPHandler) bindFulfillment(ctx *gin.Context) (rrp.Fulfillment, bool) {
	id, err := parseHash("id", ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return rrp.Fulfillment{}, false
	}
	var req FulfillRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return rrp.Fulfillment{}, false
	}

	f := rrp.Fulfillment{RequestID: id}
	if f.Airnode, err = parseAddress("airnode", req.Airnode); err != nil {
		h.writeError(ctx, err)
		return rrp.Fulfillment{}, false
	}
	if f.FulfillAddress, err = parseAddress("fulfillAddress", req.FulfillAddress); err != nil {
		h.writeError(ctx, err)
		return rrp.Fulfillment{}, false
	}
	if f.FulfillFunctionID, err = parseSelector("fulfillFunctionId", req.FulfillFunctionID); err != nil {
		h.writeError(ctx, err)
		return rrp.Fulfillment{}, false
	}
	if f.Data, err = parseBytes("data", req.Data); err != nil {
		h.writeError(ctx, err)
		return rrp.Fulfillment{}, false
	}
	if f.Signature, err = parseBytes("signature", req.Signature); err != nil {
		h.writeError(ctx, err)
		return rrp.Fulfillment{}, false
	}
	return f, true
}

func outcomeResponse(o rrp.FulfillmentOutcome) FulfillmentOutcomeResponse {
	return FulfillmentOutcomeResponse{CallSuccess: o.CallSuccess, CallbackError: string(o.CallbackError)}
}

type makeRequestCall struct {
	templateID        common.Hash
	airnode           common.Address
	endpointID        common.Hash
	sponsor           common.Address
	sponsorWallet     common.Address
	fulfillAddress    common.Address
	fulfillFunctionID [4]byte
	parameters        []byte
}

func parseMakeRequest(req MakeRequestRequest) (c makeRequestCall, err error) {
	if req.TemplateID != "" {
		if c.templateID, err = parseHash("templateId", req.TemplateID); err != nil {
			return c, err
		}
	} else {
		if c.airnode, err = parseAddress("airnode", req.Airnode); err != nil {
			return c, err
		}
		if c.endpointID, err = parseHash("endpointId", req.EndpointID); err != nil {
			return c, err
		}
	}
	if c.sponsor, err = parseAddress("sponsor", req.Sponsor); err != nil {
		return c, err
	}
	if c.sponsorWallet, err = parseAddress("sponsorWallet", req.SponsorWallet); err != nil {
		return c, err
	}
	if c.fulfillAddress, err = parseAddress("fulfillAddress", req.FulfillAddress); err != nil {
		return c, err
	}
	if c.fulfillFunctionID, err = parseSelector("fulfillFunctionId", req.FulfillFunctionID); err != nil {
		return c, err
	}
	if c.parameters, err = parseBytes("parameters", req.Parameters); err != nil {
		return c, err
	}
	return c, nil
}
