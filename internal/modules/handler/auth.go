package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stickerpack-io/stickerpack/internal/modules/model"
	"github.com/stickerpack-io/stickerpack/internal/modules/serializer"
	"github.com/stickerpack-io/stickerpack/internal/modules/service"
)

type AuthHandler struct {
	accounts service.AccountService
}

func NewAuthHandler(accounts service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type CredentialsReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type AuthResp struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// Register godoc
//
//	@Summary		Register account
//	@Description	Create an account and return a signed token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CredentialsReq	true	"Credentials"
//	@Success		201	{object}	serializer.Response{data=handler.AuthResp}
//	@Router			/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	req := CredentialsReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	user, token, err := h.accounts.Register(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, model.ErrEmailTaken):
		c.JSON(http.StatusConflict, serializer.ConflictErr("email already registered"))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}

	c.JSON(http.StatusCreated, serializer.Response{Data: AuthResp{
		UserID: user.ID.String(),
		Email:  user.Email,
		Token:  token,
	}})
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Exchange credentials for a signed token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CredentialsReq	true	"Credentials"
//	@Success		200	{object}	serializer.Response{data=handler.AuthResp}
//	@Router			/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	req := CredentialsReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	user, token, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, model.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, serializer.AuthErr("invalid email or password"))
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}

	c.JSON(http.StatusOK, serializer.Response{Data: AuthResp{
		UserID: user.ID.String(),
		Email:  user.Email,
		Token:  token,
	}})
}
