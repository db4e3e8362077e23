package handler

import (
	"errors"
	"net/http"

	"github.com/mateuscastro5/gym-api/internal/account"
	"github.com/mateuscastro5/gym-api/internal/middleware"
	"github.com/mateuscastro5/gym-api/internal/models"
	"github.com/mateuscastro5/gym-api/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler serves the public account lifecycle endpoints.
type AuthHandler struct {
	Accounts *account.Service
	Log      logrus.FieldLogger
}

func NewAuthHandler(accounts *account.Service, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{Accounts: accounts, Log: log}
}

// writeAccountError maps lifecycle errors onto the response envelope.
func writeAccountError(c *gin.Context, log logrus.FieldLogger, err error) {
	var verr *account.ValidationError
	var cerr *account.CredentialsError

	switch {
	case errors.As(err, &verr):
		util.ErrorWithData(c, http.StatusBadRequest, util.CodeInvalidParam, verr.Message, util.Response{
			"errors": verr.Errors,
		})
	case errors.Is(err, account.ErrDuplicateEmail):
		util.Error(c, http.StatusBadRequest, util.CodeConflict, err.Error())
	case errors.Is(err, account.ErrNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, err.Error())
	case errors.Is(err, account.ErrInvalidOrExpiredCode):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	case errors.As(err, &cerr):
		util.ErrorWithData(c, http.StatusUnauthorized, util.CodeAuth, cerr.Error(), util.Response{
			"remaining_attempts": cerr.Remaining,
		})
	case errors.Is(err, account.ErrInvalidCredentials),
		errors.Is(err, account.ErrAccountLocked),
		errors.Is(err, account.ErrAccountInactive):
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, err.Error())
	case errors.Is(err, account.ErrWrongPassword):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	default:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error("account operation failed")
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "internal server error")
	}
}

func bindError(c *gin.Context) {
	util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req account.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}
	// self registration always starts at the basic level
	req.AccessLevel = models.LevelBasic

	sum, err := h.Accounts.Register(c.Request.Context(), req)
	if err != nil {
		writeAccountError(c, h.Log, err)
		return
	}

	util.SuccessStatus(c, http.StatusCreated, util.Response{
		"message": "Account created. Check your e-mail to activate it.",
		"account": sum,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req account.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	res, err := h.Accounts.Login(c.Request.Context(), req)
	if err != nil {
		writeAccountError(c, h.Log, err)
		return
	}

	maxAge := int(res.ExpiresIn.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, res.Token, maxAge, "/", "", false, true)

	util.Success(c, util.Response{
		"message":       res.Welcome,
		"token":         res.Token,
		"token_type":    "Bearer",
		"expires_in":    maxAge,
		"account":       res.Account,
		"last_login_at": res.PreviousLoginAt,
	})
}

type activateReq struct {
	Code string `json:"code"`
}

// Activate accepts the code as a path parameter or in the JSON body.
func (h *AuthHandler) Activate(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		var req activateReq
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c)
			return
		}
		code = req.Code
	}

	if err := h.Accounts.Activate(c.Request.Context(), code); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "invalid activation code or account already active")
			return
		}
		writeAccountError(c, h.Log, err)
		return
	}

	util.Success(c, util.Response{"message": "Account activated."})
}

func (h *AuthHandler) RequestRecovery(c *gin.Context) {
	var req account.RecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	msg, err := h.Accounts.RequestRecovery(c.Request.Context(), req)
	if err != nil {
		writeAccountError(c, h.Log, err)
		return
	}
	util.Success(c, util.Response{"message": msg})
}

func (h *AuthHandler) ConfirmRecovery(c *gin.Context) {
	var req account.ConfirmRecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	if err := h.Accounts.ConfirmRecovery(c.Request.Context(), req); err != nil {
		writeAccountError(c, h.Log, err)
		return
	}
	util.Success(c, util.Response{"message": "Password changed."})
}

// ChangePassword requires AuthMiddleware.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	acc, ok := middleware.CurrentAccount(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	var req account.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c)
		return
	}

	if err := h.Accounts.ChangePassword(c.Request.Context(), acc.ID, req); err != nil {
		writeAccountError(c, h.Log, err)
		return
	}
	util.Success(c, util.Response{"message": "Password changed."})
}
