package httphandlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"

	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/Lumerin-protocol/airnode-gate/internal/lib"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
)

const maxBodySize = 1 << 20

var (
	ErrMissingSignature = errors.New("missing signature headers")
	ErrBadSignature     = errors.New("cannot recover signer")
	ErrSignerMismatch   = errors.New("signer is not the caller")
	ErrBadNonce         = errors.New("nonce already used or out of order")
	ErrExpired          = errors.New("request deadline passed")
)

// SignedRequestHash is the digest a caller signs with personal_sign to authenticate a write.
// It binds the chain, method, path, the caller's next nonce, a deadline in unix seconds and the body
func SignedRequestHash(chainID *big.Int, method string, path string, nonce uint64, deadline uint64, body []byte) common.Hash {
	return lib.Packed().
		Uint256(chainID).
		Hash(crypto.Keccak256Hash([]byte(method))).
		Hash(crypto.Keccak256Hash([]byte(path))).
		Uint64(nonce).
		Uint64(deadline).
		Hash(crypto.Keccak256Hash(body)).
		Keccak()
}

type signedRequest struct {
	caller   common.Address
	nonce    uint64
	deadline uint64
}

// recoverCaller authenticates writes. The request names its caller, nonce and deadline in headers
// and carries the caller's signature over SignedRequestHash
func (h *HTTPHandler) recoverCaller(ctx *gin.Context) {
	sigHex := ctx.GetHeader(SignatureHeader)
	claimed := ctx.GetHeader(CallerHeader)
	nonceStr := ctx.GetHeader(NonceHeader)
	deadlineStr := ctx.GetHeader(DeadlineHeader)
	if sigHex == "" || claimed == "" || nonceStr == "" || deadlineStr == "" {
		unauthorized(ctx, ErrMissingSignature)
		return
	}

	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		unauthorized(ctx, lib.WrapError(ErrBadSignature, err))
		return
	}
	if !common.IsHexAddress(claimed) {
		unauthorized(ctx, lib.WrapError(ErrBadSignature, fmt.Errorf("%s: %q is not an address", CallerHeader, claimed)))
		return
	}
	nonce, err := strconv.ParseUint(nonceStr, 10, 64)
	if err != nil {
		unauthorized(ctx, lib.WrapError(ErrBadNonce, err))
		return
	}
	deadline, err := strconv.ParseUint(deadlineStr, 10, 64)
	if err != nil {
		unauthorized(ctx, lib.WrapError(ErrExpired, err))
		return
	}
	if now := h.Ledger.Now(); deadline < now {
		unauthorized(ctx, lib.WrapError(ErrExpired, fmt.Errorf("deadline %d, now %d", deadline, now)))
		return
	}

	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, maxBodySize))
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Request.Body = io.NopCloser(bytes.NewReader(body))

	digest := SignedRequestHash(h.Ledger.ChainID(), ctx.Request.Method, ctx.Request.URL.Path, nonce, deadline, body)
	signer, err := lib.RecoverPersonal(digest.Bytes(), sig)
	if err != nil {
		unauthorized(ctx, lib.WrapError(ErrBadSignature, err))
		return
	}
	if signer != common.HexToAddress(claimed) {
		unauthorized(ctx, lib.WrapError(ErrSignerMismatch, fmt.Errorf("recovered %s", signer.Hex())))
		return
	}

	ctx.Set(signedKey, signedRequest{caller: signer, nonce: nonce, deadline: deadline})
	ctx.Next()
}

// useNonce spends the request's nonce. Nonces are sequential per account, starting at zero
func (h *HTTPHandler) useNonce(tx *ledger.Tx, req signedRequest) error {
	if tx.Now() > req.deadline {
		return lib.WrapError(ErrExpired, fmt.Errorf("deadline %d, now %d", req.deadline, tx.Now()))
	}
	next := h.nonces.Get(req.caller)
	if req.nonce != next {
		return lib.WrapError(ErrBadNonce, fmt.Errorf("got %d, expected %d", req.nonce, next))
	}
	h.nonces.Set(tx, req.caller, next+1)
	return nil
}

func (h *HTTPHandler) GetNonce(ctx *gin.Context) {
	account, err := parseAddress("account", ctx.Param("account"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	var nonce uint64
	h.view(func() {
		nonce = h.nonces.Get(account)
	})
	ctx.JSON(http.StatusOK, NonceResponse{Account: account, Nonce: nonce})
}

func unauthorized(ctx *gin.Context, err error) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
}

func signed(ctx *gin.Context) signedRequest {
	v, _ := ctx.Get(signedKey)
	req, _ := v.(signedRequest)
	return req
}

func caller(ctx *gin.Context) common.Address {
	return signed(ctx).caller
}
