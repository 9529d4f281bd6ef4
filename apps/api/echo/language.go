package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/camposdev/unipagos/core/language"
)

type languageApi struct {
	opts *Options
}

func registerLanguageAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := languageApi{opts: opts}

	lg := g.Group("/languages", jwt, roleMiddleware())
	lg.GET("/levels", api.queryLevels)
	lg.POST("/exams", api.registerExam)
	lg.GET("/exams", api.queryExams)
	lg.POST("/books", api.purchaseBook)
	lg.GET("/books", api.queryBooks)

	ag := g.Group("/languages/admin", jwt, adminMiddleware())
	ag.GET("/exams", api.queryAllExams)
	ag.GET("/books", api.queryAllBooks)
}

// Handlers

func (api *languageApi) queryLevels(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.opts.LanguageSvc.LevelCatalog())
}

func (api *languageApi) registerExam(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data language.NewExamRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExamRegistration")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	reg, err := api.opts.LanguageSvc.RegisterExam(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "registering exam")
	}
	return ctx.JSON(http.StatusCreated, reg)
}

func (api *languageApi) queryExams(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	regs, err := api.opts.LanguageSvc.QueryExams(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying exam registrations")
	}
	if regs == nil {
		regs = []language.ExamRegistration{}
	}
	return ctx.JSON(http.StatusOK, regs)
}

func (api *languageApi) purchaseBook(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data language.NewBookPurchase
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBookPurchase")
	}
	if err := data.Validate(api.opts.Validate); err != nil {
		return err
	}

	bp, err := api.opts.LanguageSvc.PurchaseBook(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "purchasing book")
	}
	return ctx.JSON(http.StatusCreated, bp)
}

func (api *languageApi) queryBooks(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	purchases, err := api.opts.LanguageSvc.QueryBooks(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying book purchases")
	}
	if purchases == nil {
		purchases = []language.BookPurchase{}
	}
	return ctx.JSON(http.StatusOK, purchases)
}

func (api *languageApi) queryAllExams(ctx echo.Context) error {
	regs, err := api.opts.LanguageSvc.QueryAllExams(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying exam registrations")
	}
	if regs == nil {
		regs = []language.ExamRegistration{}
	}
	return ctx.JSON(http.StatusOK, regs)
}

func (api *languageApi) queryAllBooks(ctx echo.Context) error {
	purchases, err := api.opts.LanguageSvc.QueryAllBooks(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying book purchases")
	}
	if purchases == nil {
		purchases = []language.BookPurchase{}
	}
	return ctx.JSON(http.StatusOK, purchases)
}
