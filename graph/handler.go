package graph

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	graphql "github.com/graph-gophers/graphql-go"

	"github.com/cppla/multiplex/services"
	"github.com/cppla/multiplex/utils"
)

//go:embed schema.graphql
var schemaSDL string

// Handler serves GraphQL requests over a parsed schema.
type Handler struct {
	schema *graphql.Schema
}

// NewHandler parses the schema against the resolvers. It panics on a schema
// that does not match the resolver set, which is a programming error.
func NewHandler(auth *services.AuthService, posts *services.PostService, comments *services.CommentService, users *services.UserService) *Handler {
	root := &Resolver{auth: auth, posts: posts, comments: comments, users: users}
	return &Handler{schema: graphql.MustParseSchema(schemaSDL, root, graphql.MaxDepth(12))}
}

type request struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// Serve executes a {query, operationName, variables} POST body. The actor is
// taken from the request context populated by the auth middleware.
func (h *Handler) Serve(ctx *gin.Context) {
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Query == "" {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	resp := h.schema.Exec(ctx.Request.Context(), req.Query, req.OperationName, req.Variables)
	ctx.JSON(http.StatusOK, resp)
}
