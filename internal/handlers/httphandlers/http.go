package httphandlers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/Lumerin-protocol/airnode-gate/internal/accesscontrol"
	"github.com/Lumerin-protocol/airnode-gate/internal/authorizer"
	"github.com/Lumerin-protocol/airnode-gate/internal/beacon"
	"github.com/Lumerin-protocol/airnode-gate/internal/interfaces"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/payment"
	"github.com/Lumerin-protocol/airnode-gate/internal/rrp"
	"github.com/Lumerin-protocol/airnode-gate/internal/token"
	"github.com/Lumerin-protocol/airnode-gate/internal/whitelist"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	SignatureHeader = "X-Signature"
	CallerHeader    = "X-Caller"
	NonceHeader     = "X-Nonce"
	DeadlineHeader  = "X-Deadline"
	RequestIDHeader = "X-Request-Id"

	signedKey = "signed"
)

var BuildVersion = "0.0.0-dev"

type Sanitizable interface {
	GetSanitized() interface{}
}

// Services are the contracts the api exposes
type Services struct {
	Ledger      *ledger.Ledger
	Registry    *accesscontrol.Registry
	Requesters  *authorizer.Authorizer
	Readers     *authorizer.Authorizer
	Rrp         *rrp.Rrp
	Beacons     *beacon.Server
	Token       *token.Token
	Whitelister *payment.Whitelister
	Gatherer    prometheus.Gatherer

	// AirnodeMnemonic enables sponsor wallet derivation when set
	AirnodeMnemonic string
}

type HTTPHandler struct {
	Services
	config    Sanitizable
	publicUrl *url.URL
	log       interfaces.ILogger

	// next write nonce of every account that has signed one
	nonces *ledger.Map[common.Address, uint64]
}

func NewHTTPHandler(services Services, config Sanitizable, publicUrl *url.URL, log interfaces.ILogger) *gin.Engine {
	handl := &HTTPHandler{
		Services:  services,
		config:    config,
		publicUrl: publicUrl,
		log:       log,
		nonces:    ledger.NewMap[common.Address, uint64](),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), handl.accessLog)

	r.GET("/healthcheck", handl.HealthCheck)
	r.GET("/config", handl.GetConfig)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(services.Gatherer, promhttp.HandlerOpts{})))
	r.GET("/events", handl.GetEvents)

	r.GET("/roles/root/:manager", handl.GetRootRole)
	r.GET("/roles/derive", handl.DeriveRole)
	r.GET("/roles/:role/members", handl.GetRoleMembers)
	r.GET("/roles/:role/members/:account", handl.GetRoleMembership)

	r.GET("/whitelist/:airnode/:endpoint/:requester", handl.GetWhitelistStatus)

	r.GET("/templates/:id", handl.GetTemplate)
	r.GET("/requests/:id", handl.GetRequest)
	r.GET("/sponsor-wallets/:sponsor", handl.GetSponsorWallet)

	r.GET("/beacons/:id", handl.GetBeacon)
	r.GET("/nonces/:account", handl.GetNonce)
	r.GET("/tokens/balances/:account", handl.GetTokenBalance)
	r.GET("/payments/quote", handl.GetPaymentQuote)

	signed := r.Group("/", handl.recoverCaller)

	signed.POST("/roles/initialize-manager", handl.InitializeManager)
	signed.POST("/roles/initialize", handl.InitializeRole)
	signed.POST("/roles/grant", handl.GrantRole)
	signed.POST("/roles/revoke", handl.RevokeRole)
	signed.POST("/roles/renounce", handl.RenounceRole)
	signed.POST("/roles/batch", handl.BatchRoles)

	signed.POST("/whitelist/extend", handl.ExtendWhitelist)
	signed.POST("/whitelist/set", handl.SetWhitelist)
	signed.POST("/whitelist/indefinite", handl.SetIndefiniteWhitelist)
	signed.POST("/whitelist/revoke-indefinite", handl.RevokeIndefiniteWhitelist)

	signed.POST("/sponsorship", handl.SetSponsorship)
	signed.POST("/templates", handl.CreateTemplate)
	signed.POST("/requests", handl.MakeRequest)
	signed.POST("/requests/:id/fulfill", handl.FulfillRequest)
	signed.POST("/requests/:id/dry-run", handl.DryRunFulfillRequest)
	signed.POST("/requests/:id/fail", handl.FailRequest)

	signed.POST("/beacons/update-requests", handl.RequestBeaconUpdate)
	signed.POST("/tokens/approve", handl.ApproveToken)
	signed.POST("/tokens/transfer", handl.TransferToken)
	signed.POST("/tokens/mint", handl.MintToken)
	signed.POST("/payments", handl.MakePayment)

	err := r.SetTrustedProxies(nil)
	if err != nil {
		panic(err)
	}

	return r
}

func (h *HTTPHandler) HealthCheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": BuildVersion,
		"height":  h.Ledger.Height(),
		"chainId": h.Ledger.ChainID().String(),
	})
}

func (h *HTTPHandler) GetConfig(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, ConfigResponse{
		Version: BuildVersion,
		Config:  h.config.GetSanitized(),
	})
}

// accessLog tags every request with an id and logs it once it is served
func (h *HTTPHandler) accessLog(ctx *gin.Context) {
	requestID := ctx.GetHeader(RequestIDHeader)
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	ctx.Header(RequestIDHeader, requestID)

	start := time.Now()
	ctx.Next()

	h.log.Debugw("http request",
		"id", requestID,
		"method", ctx.Request.Method,
		"path", ctx.FullPath(),
		"status", ctx.Writer.Status(),
		"duration", time.Since(start).String(),
	)
}

func (h *HTTPHandler) execute(ctx *gin.Context, fn func(tx *ledger.Tx) error) {
	h.executeWithResult(ctx, nil, fn)
}

// executeWithResult applies fn as the signed caller and responds with the receipt and result,
// which fn fills in. The request's nonce is spent in the same transaction, even when fn fails
func (h *HTTPHandler) executeWithResult(ctx *gin.Context, result interface{}, fn func(tx *ledger.Tx) error) {
	req := signed(ctx)
	var callErr error
	rcpt, err := h.Ledger.Execute(req.caller, func(tx *ledger.Tx) error {
		if err := h.useNonce(tx, req); err != nil {
			return err
		}
		snap := tx.Snapshot()
		if callErr = fn(tx); callErr != nil {
			tx.RevertToSnapshot(snap)
		}
		return nil
	})
	if err == nil {
		err = callErr
	}
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, receiptResponse(rcpt, result))
}

// view runs reads under the ledger lock
func (h *HTTPHandler) view(fn func()) {
	_ = h.Ledger.View(func(*ledger.Tx) error {
		fn()
		return nil
	})
}

func (h *HTTPHandler) writeError(ctx *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Errorf("%s %s: %s", ctx.Request.Method, ctx.FullPath(), err)
	}
	ctx.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}

var (
	unauthorizedErrs = []error{
		ErrBadNonce,
		ErrExpired,
	}
	forbidden = []error{
		accesscontrol.ErrNotAdmin,
		accesscontrol.ErrCannotRenounceOther,
		authorizer.ErrNotExtender,
		authorizer.ErrNotSetter,
		authorizer.ErrNotIndefiniteWhitelister,
		authorizer.ErrSetterStillPrivileged,
		rrp.ErrRequesterNotSponsored,
		beacon.ErrReaderNotWhitelisted,
		payment.ErrNotMaintainer,
		payment.ErrNotPriceSetter,
		token.ErrNotMinter,
	}
	notFound = []error{
		rrp.ErrTemplateNotFound,
		rrp.ErrUnknownRequest,
		beacon.ErrBeaconNotInitialized,
		payment.ErrUnknownChain,
	}
	paymentRequired = []error{
		token.ErrInsufficientBalance,
		token.ErrInsufficientAllowance,
	}
	conflict = []error{
		whitelist.ErrDoesNotExtendExpiration,
		payment.ErrAlreadyWhitelistedIndefinitely,
	}
)

func statusFor(err error) int {
	switch {
	case isAny(err, unauthorizedErrs):
		return http.StatusUnauthorized
	case isAny(err, forbidden):
		return http.StatusForbidden
	case isAny(err, notFound):
		return http.StatusNotFound
	case isAny(err, paymentRequired):
		return http.StatusPaymentRequired
	case isAny(err, conflict):
		return http.StatusConflict
	case errors.Is(err, payment.ErrPriceFeed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
