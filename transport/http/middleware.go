package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mirror520/taskboard/model"
)

const actorKey = "actor"

// Authenticator rejects requests without a valid bearer token and
// stores the token subject as the actor of the request.
func Authenticator(parser *TokenParser) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var claims Claims
		if err := parser.ParseToken(ctx, &claims); err != nil {
			unauthorized(ctx, http.StatusUnauthorized, ErrInvalidToken)
			return
		}

		actor, err := claims.Actor()
		if err != nil {
			unauthorized(ctx, http.StatusUnauthorized, err)
			return
		}

		ctx.Set(actorKey, actor)
		ctx.Next()
	}
}

func Actor(ctx *gin.Context) model.ID {
	v, ok := ctx.Get(actorKey)
	if !ok {
		return model.ID{}
	}

	actor, _ := v.(model.ID)
	return actor
}

func unauthorized(ctx *gin.Context, code int, err error) {
	ctx.Header("WWW-Authenticate", `Bearer realm="taskboard"`)
	ctx.AbortWithStatusJSON(code, model.FailureResult(err))
}
