package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/multiplex/middleware"
	"github.com/cppla/multiplex/models"
	"github.com/cppla/multiplex/services"
	"github.com/cppla/multiplex/utils"
)

// respondError maps the service error taxonomy onto HTTP.
func respondError(ctx *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.FieldErrors(ctx, http.StatusBadRequest, 40000, "validation failed", verr.Fields)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.Error(ctx, http.StatusUnauthorized, 40106, err.Error())
	case errors.Is(err, services.ErrInvalidToken):
		utils.Error(ctx, http.StatusUnauthorized, 40105, err.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		utils.Error(ctx, http.StatusUnauthorized, 40100, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.Error(ctx, http.StatusForbidden, 40300, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, err.Error())
	default:
		utils.Logger.Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.String("request_id", ctx.GetString("request_id")),
			zap.Error(err),
		)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}

func badPayload(ctx *gin.Context) {
	utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
}

// pathID parses the :id segment. Malformed ids are reported as missing.
func pathID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
		return 0, false
	}
	return uint(id), true
}

func actor(ctx *gin.Context) services.Actor {
	return middleware.Actor(ctx)
}

// parsePagination falls back to zero (service default) on any invalid value.
func parsePagination(pageStr, sizeStr string) (int, int) {
	page, size := 0, 0
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if s, err := strconv.Atoi(sizeStr); err == nil && s > 0 {
		size = s
	}
	return page, size
}

// parseBool accepts the usual truthy and falsy spellings; anything else is nil.
func parseBool(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		v := true
		return &v
	case "0", "false", "no", "off":
		v := false
		return &v
	}
	return nil
}

// pageURL rebuilds the request URL pointing at another page.
func pageURL(ctx *gin.Context, page int) string {
	scheme := "http"
	if ctx.Request.TLS != nil || strings.EqualFold(ctx.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	q := ctx.Request.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u := url.URL{Scheme: scheme, Host: ctx.Request.Host, Path: ctx.Request.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

type postResponse struct {
	ID           uint      `json:"id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	User         uint      `json:"user"`
	UserUsername string    `json:"user_username"`
	IsPublished  bool      `json:"is_published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func newPostResponse(p *models.Post) postResponse {
	return postResponse{
		ID:           p.ID,
		Title:        p.Title,
		Body:         p.Body,
		User:         p.UserID,
		UserUsername: p.User.Username,
		IsPublished:  p.IsPublished,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

type commentResponse struct {
	ID             uint      `json:"id"`
	Post           uint      `json:"post"`
	Author         uint      `json:"author"`
	AuthorUsername string    `json:"author_username"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newCommentResponse(c *models.Comment) commentResponse {
	return commentResponse{
		ID:             c.ID,
		Post:           c.PostID,
		Author:         c.AuthorID,
		AuthorUsername: c.Author.Username,
		Content:        c.Content,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

type pageResponse struct {
	Count    int64          `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []postResponse `json:"results"`
}

// identified answers 401 for anonymous callers before any payload is read.
func identified(ctx *gin.Context) bool {
	if err := services.RequireIdentity(actor(ctx)); err != nil {
		respondError(ctx, err)
		return false
	}
	return true
}
