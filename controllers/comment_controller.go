package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/multiplex/services"
	"github.com/cppla/multiplex/utils"
)

// CommentController serves the comment resource.
type CommentController struct {
	comments *services.CommentService
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(comments *services.CommentService) *CommentController {
	return &CommentController{comments: comments}
}

// ListComments returns all comments, newest first, optionally for one post.
func (c *CommentController) ListComments(ctx *gin.Context) {
	var q services.CommentQuery
	if raw := ctx.Query("post"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			postID := uint(id)
			q.PostID = &postID
		}
	}

	comments, err := c.comments.List(ctx.Request.Context(), q)
	if err != nil {
		respondError(ctx, err)
		return
	}
	out := make([]commentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, newCommentResponse(&comments[i]))
	}
	utils.Success(ctx, out)
}

// GetComment returns a single comment.
func (c *CommentController) GetComment(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	comment, err := c.comments.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, newCommentResponse(comment))
}

// CreateComment attaches a comment by the caller to a post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	if !identified(ctx) {
		return
	}
	var req struct {
		Post    uint   `json:"post"`
		Content string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}

	comment, err := c.comments.Create(ctx.Request.Context(), actor(ctx), services.CommentInput{PostID: req.Post, Content: req.Content})
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, newCommentResponse(comment))
}

// UpdateComment handles PUT and PATCH. Only content is writable.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	if !identified(ctx) {
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req struct {
		Content *string `json:"content"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}
	if ctx.Request.Method == http.MethodPut && req.Content == nil {
		respondError(ctx, &services.ValidationError{Fields: map[string]string{"content": "this field is required"}})
		return
	}

	comment, err := c.comments.Update(ctx.Request.Context(), actor(ctx), id, services.CommentPatch{Content: req.Content})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, newCommentResponse(comment))
}

// DeleteComment removes a comment.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := c.comments.Delete(ctx.Request.Context(), actor(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
