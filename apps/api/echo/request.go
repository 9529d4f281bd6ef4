package echoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/camposdev/unipagos/core/request"
	"github.com/camposdev/unipagos/core/user"
)

type requestApi struct {
	opts *Options
}

func registerRequestAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := requestApi{opts: opts}

	rg := g.Group("/requests", jwt, roleMiddleware())
	rg.GET("/types", api.queryTypes)
	rg.POST("", api.submit)
	rg.GET("", api.queryOwned)

	ag := g.Group("/requests/admin", jwt, roleMiddleware(user.RoleServicios, user.RoleAdmin))
	ag.GET("", api.queryAll)
	ag.GET("/watch", api.watch)
	ag.POST("/:id/approve", api.approve)
	ag.POST("/:id/complete", api.complete)
	ag.POST("/:id/reject", api.reject)
}

// Handlers

func (api *requestApi) queryTypes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, request.Types)
}

func (api *requestApi) submit(ctx echo.Context) error {
	var data request.NewRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRequest")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.opts.UserSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	req, err := api.opts.RequestSvc.Submit(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "submitting request")
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *requestApi) queryOwned(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	reqs, err := api.opts.RequestSvc.QueryOwned(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying owned requests")
	}
	if reqs == nil {
		reqs = []request.ConstanciaRequest{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *requestApi) queryAll(ctx echo.Context) error {
	reqs, err := api.opts.RequestSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying requests")
	}
	if reqs == nil {
		reqs = []request.ConstanciaRequest{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

// watch streams full-list snapshots over SSE. The first event is the current
// state; subsequent events follow every transition until the client hangs up.
func (api *requestApi) watch(ctx echo.Context) error {
	sub, err := api.opts.RequestSvc.Subscribe(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "subscribing to request snapshots")
	}
	defer sub.Close()

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	done := ctx.Request().Context().Done()
	for {
		select {
		case <-done:
			return nil
		case snapshot, ok := <-sub.C:
			if !ok {
				return nil
			}
			data, err := json.Marshal(snapshot)
			if err != nil {
				return errors.Wrap(err, "marshaling snapshot")
			}
			if _, err = fmt.Fprintf(resp, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return nil // client hung up
			}
			resp.Flush()
		}
	}
}

func (api *requestApi) approve(ctx echo.Context) error {
	return api.resolve(ctx, api.opts.RequestSvc.Approve)
}

func (api *requestApi) complete(ctx echo.Context) error {
	return api.resolve(ctx, api.opts.RequestSvc.Complete)
}

func (api *requestApi) reject(ctx echo.Context) error {
	return api.resolve(ctx, api.opts.RequestSvc.Reject)
}

type resolveFunc func(ctx context.Context, id string, res request.Resolution) (request.ConstanciaRequest, error)

func (api *requestApi) resolve(ctx echo.Context, fn resolveFunc) error {
	var data request.Resolution
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Resolution")
	}
	data.Clean()

	req, err := fn(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == request.ErrNotFound {
			return errHttpNotFound
		}
		// invalid transitions surface as validation errors (400)
		return err
	}
	return ctx.JSON(http.StatusOK, req)
}
