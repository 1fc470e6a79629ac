package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/multiplex/services"
	"github.com/cppla/multiplex/utils"
)

// ContextActorKey stores the resolved services.Actor inside the Gin context.
const ContextActorKey = "actor"

// Authenticator resolves an Authorization header into an actor.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) services.Actor
}

// Authenticate resolves the caller on every request. It never rejects: a
// missing or invalid credential leaves the request anonymous so public reads
// keep working. The actor is attached to both the Gin context and the
// request context.
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actor := auth.Authenticate(ctx.Request.Context(), ctx.GetHeader("Authorization"))
		ctx.Set(ContextActorKey, actor)
		ctx.Request = ctx.Request.WithContext(services.WithActor(ctx.Request.Context(), actor))
		ctx.Next()
	}
}

// Actor returns the actor resolved by Authenticate, or Anonymous.
func Actor(ctx *gin.Context) services.Actor {
	if v, ok := ctx.Get(ContextActorKey); ok {
		if a, ok := v.(services.Actor); ok {
			return a
		}
	}
	return services.Anonymous()
}

// AuthRequired rejects anonymous callers with 401.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if Actor(ctx).IsAnonymous() {
			utils.Error(ctx, http.StatusUnauthorized, 40100, services.ErrUnauthenticated.Error())
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// StaffRequired rejects callers without the staff or superuser flag.
func StaffRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := services.AuthorizeStaff(Actor(ctx)); err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				utils.Error(ctx, http.StatusUnauthorized, 40100, err.Error())
			} else {
				utils.Error(ctx, http.StatusForbidden, 40300, err.Error())
			}
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
