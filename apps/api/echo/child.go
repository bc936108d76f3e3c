package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/child"
)

const mimeApplicationPDF = "application/pdf"

type childApi struct {
	svc       child.ServiceInterface
	assessSvc assessment.ServiceInterface
	renderer  child.Renderer
	validate  *validator.Validate
}

func registerChildAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc child.ServiceInterface,
	assessSvc assessment.ServiceInterface,
	renderer child.Renderer,
	validate *validator.Validate,
) {
	api := childApi{
		svc:       svc,
		assessSvc: assessSvc,
		renderer:  renderer,
		validate:  validate,
	}

	cg := g.Group("/children", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create)

	// detail endpoints
	dg := cg.Group("/:id", childMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/consent-form", api.consentForm)
	dg.GET("/assessments", api.queryAssessments)
	dg.POST("/assessments", api.createAssessment)
}

func (api *childApi) query(ctx echo.Context) error {
	var filter child.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []child.Child{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	children, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying children")
	}
	if children == nil {
		children = []child.Child{}
	}
	return ctx.JSON(http.StatusOK, children)
}

func (api *childApi) create(ctx echo.Context) error {
	var data child.ChildData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChildData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating child")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *childApi) retrieve(ctx echo.Context) error {
	c, err := contextChild(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *childApi) update(ctx echo.Context) error {
	c, err := contextChild(ctx)
	if err != nil {
		return err
	}
	var data child.ChildData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChildData")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if c, err = api.svc.Update(ctx.Request().Context(), c.ID, data); err != nil {
		return errors.Wrap(err, "updating child")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *childApi) destroy(ctx echo.Context) error {
	c, err := contextChild(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting child")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *childApi) consentForm(ctx echo.Context) error {
	c, err := contextChild(ctx)
	if err != nil {
		return err
	}
	form, err := api.svc.ConsentForm(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "building consent form")
	}

	var buf bytes.Buffer
	if err = api.renderer.RenderConsentForm(&buf, form); err != nil {
		return errors.Wrap(err, "rendering consent form")
	}
	return sendPDF(ctx, form.Filename, buf.Bytes())
}

func (api *childApi) queryAssessments(ctx echo.Context) error {
	c, err := contextChild(ctx)
	if err != nil {
		return err
	}
	assessments, err := api.assessSvc.ListForChild(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "listing assessments")
	}
	if assessments == nil {
		assessments = []assessment.Assessment{}
	}
	return ctx.JSON(http.StatusOK, assessments)
}

func (api *childApi) createAssessment(ctx echo.Context) error {
	c, err := contextChild(ctx)
	if err != nil {
		return err
	}
	var data assessment.NewAssessment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.assessSvc.Create(ctx.Request().Context(), c.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating assessment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

// sendPDF writes `content` as a downloadable PDF named `filename`.
func sendPDF(ctx echo.Context, filename string, content []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, mimeApplicationPDF, content)
}
