package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/beatmarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/beatmarket-backend/internal/usecase/account"
)

// AuthHandler регистрация, логин, обновление токенов и удаление аккаунта.
type AuthHandler struct {
	register      *account.RegisterUseCase
	login         *account.LoginUseCase
	refresh       *account.RefreshUseCase
	deleteAccount *account.DeleteAccountUseCase
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(deps account.Deps) *AuthHandler {
	return &AuthHandler{
		register:      account.NewRegisterUseCase(deps),
		login:         account.NewLoginUseCase(deps),
		refresh:       account.NewRefreshUseCase(deps),
		deleteAccount: account.NewDeleteAccountUseCase(deps),
	}
}

// Register обрабатывает POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Username string `json:"username" binding:"required"`
		Role     string `json:"role"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	result, err := h.register.Execute(c.Request.Context(), account.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		Role:     req.Role,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"account": result.Account,
		"tokens":  result.Tokens,
	})
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	result, err := h.login.Execute(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": result.Account,
		"tokens":  result.Tokens,
	})
}

// Refresh обрабатывает POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	tokens, err := h.refresh.Execute(c.Request.Context(), req.RefreshToken)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// DeleteAccount обрабатывает DELETE /api/account.
// Требует пароль, точную фразу подтверждения и причину.
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	accountID, err := common.CurrentAccountID(c)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	var req struct {
		Password         string `json:"password" binding:"required"`
		ConfirmationText string `json:"confirmation_text" binding:"required"`
		Reason           string `json:"reason" binding:"required"`
	}
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondAppError(c, err)
		return
	}

	err = h.deleteAccount.Execute(c.Request.Context(), account.DeleteAccountInput{
		AccountID:        accountID,
		Password:         req.Password,
		ConfirmationText: req.ConfirmationText,
		Reason:           req.Reason,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "аккаунт удалён"})
}
