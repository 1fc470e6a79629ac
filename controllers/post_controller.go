package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/multiplex/services"
	"github.com/cppla/multiplex/utils"
)

// PostController serves the post resource.
type PostController struct {
	posts *services.PostService
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService) *PostController {
	return &PostController{posts: posts}
}

type postRequest struct {
	Title       *string `json:"title"`
	Body        *string `json:"body"`
	IsPublished *bool   `json:"is_published"`
}

// ListPosts returns a page of posts. Supported filters: is_published,
// search, ordering, mine, page and page_size.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, size := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	mine := parseBool(ctx.Query("mine"))
	q := services.PostQuery{
		IsPublished: parseBool(ctx.Query("is_published")),
		Search:      strings.TrimSpace(ctx.Query("search")),
		Ordering:    ctx.Query("ordering"),
		Mine:        mine != nil && *mine,
		Page:        page,
		PageSize:    size,
	}

	result, err := p.posts.List(ctx.Request.Context(), actor(ctx), q)
	if err != nil {
		respondError(ctx, err)
		return
	}

	body := pageResponse{Count: result.Count, Results: make([]postResponse, 0, len(result.Results))}
	for i := range result.Results {
		body.Results = append(body.Results, newPostResponse(&result.Results[i]))
	}
	if result.HasNext() {
		next := pageURL(ctx, result.Page+1)
		body.Next = &next
	}
	if result.Page > 1 {
		prev := pageURL(ctx, result.Page-1)
		body.Previous = &prev
	}
	utils.Success(ctx, body)
}

// GetPost returns a single post.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	post, err := p.posts.Get(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, newPostResponse(post))
}

// CreatePost stores a post owned by the caller.
func (p *PostController) CreatePost(ctx *gin.Context) {
	if !identified(ctx) {
		return
	}
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}

	in := services.PostInput{Title: deref(req.Title), Body: deref(req.Body)}
	if req.IsPublished != nil {
		in.IsPublished = *req.IsPublished
	}
	post, err := p.posts.Create(ctx.Request.Context(), actor(ctx), in)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, newPostResponse(post))
}

// UpdatePost handles PUT (title and body required) and PATCH (partial).
func (p *PostController) UpdatePost(ctx *gin.Context) {
	if !identified(ctx) {
		return
	}
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req postRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badPayload(ctx)
		return
	}

	if ctx.Request.Method == http.MethodPut {
		fields := map[string]string{}
		if req.Title == nil {
			fields["title"] = "this field is required"
		}
		if req.Body == nil {
			fields["body"] = "this field is required"
		}
		if len(fields) > 0 {
			respondError(ctx, &services.ValidationError{Fields: fields})
			return
		}
	}

	post, err := p.posts.Update(ctx.Request.Context(), actor(ctx), id, services.PostPatch{
		Title:       req.Title,
		Body:        req.Body,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, newPostResponse(post))
}

// DeletePost removes a post and its comments.
func (p *PostController) DeletePost(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := p.posts.Delete(ctx.Request.Context(), actor(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// PublishPost is the staff-only publish action.
func (p *PostController) PublishPost(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := p.posts.Publish(ctx.Request.Context(), actor(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"status": "published"})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
