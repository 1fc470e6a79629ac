package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/multiplex/services"
	"github.com/cppla/multiplex/utils"
)

// AuthController serves login, token refresh and the "me" endpoint.
type AuthController struct {
	auth  *services.AuthService
	users *services.UserService
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(auth *services.AuthService, users *services.UserService) *AuthController {
	return &AuthController{auth: auth, users: users}
}

// Login exchanges username and password for an access/refresh pair.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}

	pair, err := a.auth.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, pair)
}

// Refresh exchanges a refresh token for a new access token.
func (a *AuthController) Refresh(ctx *gin.Context) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}

	access, err := a.auth.Refresh(ctx.Request.Context(), req.Refresh)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"access": access})
}

// Me returns the caller's username, email and level.
func (a *AuthController) Me(ctx *gin.Context) {
	me, err := a.users.Me(ctx.Request.Context(), actor(ctx))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, meResponse{Username: me.Username, Email: me.Email, Level: me.Level})
}

type meResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Level    *int   `json:"level"`
}
