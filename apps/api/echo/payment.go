package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/camposdev/unipagos/core/payment"
	"github.com/camposdev/unipagos/core/user"
)

type paymentApi struct {
	opts *Options
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := paymentApi{opts: opts}

	pg := g.Group("/payments", jwt, roleMiddleware())
	pg.GET("", api.queryOwned)
	pg.GET("/concepts", api.queryConcepts)
	pg.GET("/notifications", api.queryNotifications)
	pg.POST("/notifications/:id/dismiss", api.dismissNotification)
	pg.GET("/stats", api.stats)
	pg.GET("/history", api.history)
	pg.GET("/monthly", api.monthlySummary)
	pg.GET("/:id/receipt", api.downloadReceipt)

	ag := g.Group("/payments/admin", jwt, roleMiddleware(user.RoleJefatura, user.RoleAdmin))
	ag.GET("", api.queryAll)
	ag.POST("/assign", api.assign)
	ag.POST("/:id/mark-paid", api.markPaid)
}

// Handlers

func (api *paymentApi) queryOwned(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	records, err := api.opts.PaymentSvc.QueryOwned(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying owned payments")
	}
	if records == nil {
		records = []payment.PaymentRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *paymentApi) queryConcepts(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.opts.PaymentSvc.Concepts())
}

func (api *paymentApi) queryNotifications(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	notifs, err := api.opts.PaymentSvc.Notifications(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []payment.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

func (api *paymentApi) dismissNotification(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	err = api.opts.PaymentSvc.Dismiss(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == payment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "dismissing notification")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *paymentApi) stats(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	stats, err := api.opts.PaymentSvc.OwnerStats(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "computing payment stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *paymentApi) history(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	filter := new(payment.HistoryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []payment.PaymentRecord{})
	}
	filter.Clean()

	records, err := api.opts.PaymentSvc.History(ctx.Request().Context(), claims.Subject, *filter)
	if err != nil {
		return errors.Wrap(err, "querying payment history")
	}
	if records == nil {
		records = []payment.PaymentRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *paymentApi) monthlySummary(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	groups, err := api.opts.PaymentSvc.MonthlySummary(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "computing monthly summary")
	}
	if groups == nil {
		groups = []payment.MonthlyGroup{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

// downloadReceipt streams the rendered receipt. If rendering fails, the raw
// receipt data is still returned so the payer never loses proof of payment.
func (api *paymentApi) downloadReceipt(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	rec, err := api.opts.PaymentSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == payment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding payment by ID")
	}
	// owners only, unless the caller reviews payments
	if rec.OwnerID != claims.Subject {
		switch user.ParseRole(claims.Role) {
		case user.RoleJefatura, user.RoleAdmin:
		default:
			return errHttpNotFound
		}
	}

	receipt, err := api.opts.PaymentSvc.ReceiptFor(ctx.Request().Context(), rec.ID)
	if err != nil {
		return err
	}

	img, err := api.opts.Receipts.Render(receipt)
	if err != nil {
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "rendering receipt"))
		return ctx.JSON(http.StatusOK, receipt)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", receipt.FileName()))
	return ctx.Blob(http.StatusOK, "image/png", img)
}

func (api *paymentApi) queryAll(ctx echo.Context) error {
	records, err := api.opts.PaymentSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if records == nil {
		records = []payment.PaymentRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *paymentApi) assign(ctx echo.Context) error {
	var data payment.AssignPayments
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignPayments")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	res, err := api.opts.PaymentSvc.Assign(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "assigning payments")
	}

	code := http.StatusCreated
	if res.Outcome() == payment.BatchFailed {
		code = http.StatusBadRequest
	}
	return ctx.JSON(code, res)
}

func (api *paymentApi) markPaid(ctx echo.Context) error {
	var data payment.MarkPaid
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkPaid")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	rec, err := api.opts.PaymentSvc.MarkPaid(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == payment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "marking payment paid")
	}
	return ctx.JSON(http.StatusOK, rec)
}
