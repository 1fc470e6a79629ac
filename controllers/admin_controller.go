package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/multiplex/services"
	"github.com/cppla/multiplex/utils"
)

// AdminController exposes the staff bulk actions.
type AdminController struct {
	posts *services.PostService
	users *services.UserService
}

// NewAdminController creates a new AdminController instance.
func NewAdminController(posts *services.PostService, users *services.UserService) *AdminController {
	return &AdminController{posts: posts, users: users}
}

type idsRequest struct {
	IDs []uint `json:"ids"`
}

// PublishPosts marks the given posts published.
func (a *AdminController) PublishPosts(ctx *gin.Context) { a.setPublished(ctx, true) }

// UnpublishPosts marks the given posts unpublished.
func (a *AdminController) UnpublishPosts(ctx *gin.Context) { a.setPublished(ctx, false) }

func (a *AdminController) setPublished(ctx *gin.Context, published bool) {
	var req idsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	n, err := a.posts.SetPublished(ctx.Request.Context(), actor(ctx), req.IDs, published)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"updated": n})
}

// SetProfileLevel sets the profile level for the given users.
func (a *AdminController) SetProfileLevel(ctx *gin.Context) {
	var req struct {
		IDs   []uint `json:"ids"`
		Level *int   `json:"level"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	if req.Level == nil {
		respondError(ctx, &services.ValidationError{Fields: map[string]string{"level": "this field is required"}})
		return
	}
	n, err := a.users.SetLevel(ctx.Request.Context(), actor(ctx), req.IDs, *req.Level)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"updated": n})
}
