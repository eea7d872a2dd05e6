package httpadapter

import (
	"context"
	"slices"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const (
	corsAllowMethods  = "GET,POST,OPTIONS"
	corsAllowHeaders  = "Content-Type"
	corsExposeHeaders = "Content-Disposition"
)

// allowOrigin returns the Access-Control-Allow-Origin value for a request
// from origin. An empty allow list or one containing "*" allows every origin.
func allowOrigin(allowed []string, origin string) (string, bool) {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return "*", true
	}
	if origin != "" && slices.Contains(allowed, origin) {
		return origin, true
	}
	return "", false
}

// corsMiddleware lets a browser map client poll the API from another origin.
func corsMiddleware(allowed []string) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if value, ok := allowOrigin(allowed, string(ctx.Request.Header.Peek("Origin"))); ok {
			ctx.Response.Header.Set("Access-Control-Allow-Origin", value)
			if value != "*" {
				ctx.Response.Header.Set("Vary", "Origin")
			}
			ctx.Response.Header.Set("Access-Control-Allow-Methods", corsAllowMethods)
			ctx.Response.Header.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			ctx.Response.Header.Set("Access-Control-Expose-Headers", corsExposeHeaders)
			ctx.Response.Header.Set("Access-Control-Max-Age", "600")
		}
		if string(ctx.Method()) == consts.MethodOptions {
			ctx.AbortWithStatus(consts.StatusNoContent)
			return
		}
		ctx.Next(c)
	}
}
