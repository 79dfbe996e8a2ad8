package httphandlers

import (
	"net/http"

	"github.com/Lumerin-protocol/airnode-gate/internal/accesscontrol"
	"github.com/Lumerin-protocol/airnode-gate/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func (h *HTTPHandler) GetRootRole(ctx *gin.Context) {
	manager, err := parseAddress("manager", ctx.Param("manager"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, RoleResponse{Role: accesscontrol.DeriveRootRole(manager).Hex()})
}

func (h *HTTPHandler) DeriveRole(ctx *gin.Context) {
	admin, err := parseHash("admin", ctx.Query("admin"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	role, err := accesscontrol.DeriveRole(admin, ctx.Query("description"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, RoleResponse{Role: role.Hex()})
}

func (h *HTTPHandler) GetRoleMembers(ctx *gin.Context) {
	role, err := parseHash("role", ctx.Param("role"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	members := []string{}
	h.view(func() {
		for _, m := range h.Registry.Members(role) {
			members = append(members, m.Hex())
		}
	})
	ctx.JSON(http.StatusOK, gin.H{"role": role.Hex(), "members": members})
}

func (h *HTTPHandler) GetRoleMembership(ctx *gin.Context) {
	role, err := parseHash("role", ctx.Param("role"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	account, err := parseAddress("account", ctx.Param("account"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	var res RoleMembershipResponse
	h.view(func() {
		res = RoleMembershipResponse{
			Role:        role.Hex(),
			Account:     account.Hex(),
			HasRole:     h.Registry.HasRole(role, account),
			AdminRole:   h.Registry.GetRoleAdmin(role).Hex(),
			Description: h.Registry.GetRoleDescription(role),
		}
	})
	ctx.JSON(http.StatusOK, res)
}

func (h *HTTPHandler) InitializeManager(ctx *gin.Context) {
	var req InitializeManagerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	manager, err := parseAddress("manager", req.Manager)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	h.execute(ctx, func(tx *ledger.Tx) error {
		return h.Registry.InitializeManager(tx, manager)
	})
}

func (h *HTTPHandler) InitializeRole(ctx *gin.Context) {
	var req InitializeRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	admin, err := parseHash("adminRole", req.AdminRole)
	if err != nil {
		h.writeError(ctx, err)
		return
	}

	var role RoleResponse
	h.executeWithResult(ctx, &role, func(tx *ledger.Tx) error {
		r, err := h.Registry.InitializeRoleAndGrantToSender(tx, admin, req.Description)
		role.Role = r.Hex()
		return err
	})
}

func (h *HTTPHandler) GrantRole(ctx *gin.Context) {
	h.roleAccountCall(ctx, h.Registry.GrantRole)
}

func (h *HTTPHandler) RevokeRole(ctx *gin.Context) {
	h.roleAccountCall(ctx, h.Registry.RevokeRole)
}

func (h *HTTPHandler) RenounceRole(ctx *gin.Context) {
	h.roleAccountCall(ctx, h.Registry.RenounceRole)
}

func (h *HTTPHandler) BatchRoles(ctx *gin.Context) {
	var req BatchRolesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}

	inits := make([]accesscontrol.RoleInit, len(req.Inits))
	for i, init := range req.Inits {
		admin, err := parseHash("adminRole", init.AdminRole)
		if err != nil {
			h.writeError(ctx, err)
			return
		}
		inits[i] = accesscontrol.RoleInit{AdminRole: admin, Description: init.Description}
	}
	grants := make([]accesscontrol.RoleGrant, len(req.Grants))
	for i, grant := range req.Grants {
		role, account, err := parseRoleAccount(grant)
		if err != nil {
			h.writeError(ctx, err)
			return
		}
		grants[i] = accesscontrol.RoleGrant{Role: role, Account: account}
	}

	var roles []string
	h.executeWithResult(ctx, &roles, func(tx *ledger.Tx) error {
		res, err := h.Registry.Batch(tx, inits, grants)
		for _, r := range res {
			roles = append(roles, r.Hex())
		}
		return err
	})
}

func (h *HTTPHandler) roleAccountCall(ctx *gin.Context, call func(tx *ledger.Tx, role common.Hash, account common.Address) error) {
	var req RoleAccountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.writeError(ctx, err)
		return
	}
	role, account, err := parseRoleAccount(req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	h.execute(ctx, func(tx *ledger.Tx) error {
		return call(tx, role, account)
	})
}

func parseRoleAccount(req RoleAccountRequest) (common.Hash, common.Address, error) {
	role, err := parseHash("role", req.Role)
	if err != nil {
		return common.Hash{}, common.Address{}, err
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		return common.Hash{}, common.Address{}, err
	}
	return role, account, nil
}
