package handler

import (
	"net/http"
	"strconv"

	"github.com/mateuscastro5/gym-api/internal/account"
	"github.com/mateuscastro5/gym-api/internal/middleware"
	"github.com/mateuscastro5/gym-api/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserHandler serves the authenticated account endpoints.
type UserHandler struct {
	Accounts *account.Service
	Log      logrus.FieldLogger
}

func NewUserHandler(accounts *account.Service, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{Accounts: accounts, Log: log}
}

// GetMe returns the current account (needs AuthMiddleware).
func (h *UserHandler) GetMe(c *gin.Context) {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}
	util.Success(c, util.Response{"account": acc})
}

// ListUsers is admin only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	includeDeleted, _ := strconv.ParseBool(c.DefaultQuery("include_deleted", "false"))

	list, err := h.Accounts.List(c.Request.Context(), includeDeleted)
	if err != nil {
		writeAccountError(c, h.Log, err)
		return
	}
	util.Success(c, util.Response{
		"items": list,
		"total": len(list),
	})
}

// CreateUser lets an admin register an account with any access level.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req account.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	sum, err := h.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		writeAccountError(c, h.Log, err)
		return
	}
	util.SuccessStatus(c, http.StatusCreated, util.Response{"account": sum})
}

// DeleteUser soft deletes an account.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := middleware.CurrentAccount(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid account id")
		return
	}

	if err := h.Accounts.SoftDelete(c.Request.Context(), actor.ID, uint(id)); err != nil {
		writeAccountError(c, h.Log, err)
		return
	}
	util.Success(c, util.Response{"message": "Account deleted."})
}
