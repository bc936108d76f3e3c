package echoapi

import (
	"bytes"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/evaluation"
	"github.com/trezcool/milestone/core/user"
)

type assessmentApi struct {
	svc      assessment.ServiceInterface
	evalSvc  evaluation.ServiceInterface
	center   core.CenterConfig
	validate *validator.Validate
}

func registerAssessmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc assessment.ServiceInterface,
	evalSvc evaluation.ServiceInterface,
	center core.CenterConfig,
	validate *validator.Validate,
) {
	api := assessmentApi{
		svc:      svc,
		evalSvc:  evalSvc,
		center:   center,
		validate: validate,
	}
	evaluators := roleMiddleware(user.EvaluatorRoles...)

	g.GET("/evaluations/defaults", api.evaluationDefaults, jwt)

	dg := g.Group("/assessments/:id", jwt, assessmentMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
	dg.GET("/results", api.results)
	dg.GET("/stats", api.stats)

	eg := dg.Group("/evaluation")
	eg.GET("", api.retrieveEvaluation)
	eg.POST("", api.finalizeEvaluation, evaluators)
	eg.POST("/background", api.recordBackground)
	eg.GET("/pdf", api.evaluationPDF)
	eg.POST("/email", api.emailEvaluation, evaluators)
}

func (api *assessmentApi) retrieve(ctx echo.Context) error {
	a, err := contextAssessment(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assessmentApi) destroy(ctx echo.Context) error {
	a, err := contextAssessment(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), a.ID); err != nil {
		return errors.Wrap(err, "deleting assessment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *assessmentApi) results(ctx echo.Context) error {
	a, err := contextAssessment(ctx)
	if err != nil {
		return err
	}
	results, err := api.svc.Results(ctx.Request().Context(), a.ID)
	if err != nil {
		return errors.Wrap(err, "summarizing responses")
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *assessmentApi) stats(ctx echo.Context) error {
	a, err := contextAssessment(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.Stats(ctx.Request().Context(), a.ID)
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// Evaluation

func (api *assessmentApi) evaluation(ctx echo.Context) (evaluation.Evaluation, error) {
	a, err := contextAssessment(ctx)
	if err != nil {
		return evaluation.Evaluation{}, err
	}
	ev, err := api.evalSvc.Get(ctx.Request().Context(), a.ID)
	if err != nil {
		return evaluation.Evaluation{}, errors.Wrap(err, "finding evaluation")
	}
	return ev, nil
}

func (api *assessmentApi) retrieveEvaluation(ctx echo.Context) error {
	ev, err := api.evaluation(ctx)
	if err != nil {
		return err
	}
	payload, err := api.evalSvc.BuildReportPayload(ctx.Request().Context(), ev)
	if err != nil {
		return errors.Wrap(err, "building report payload")
	}
	return ctx.JSON(http.StatusOK, payload)
}

func (api *assessmentApi) recordBackground(ctx echo.Context) error {
	a, err := contextAssessment(ctx)
	if err != nil {
		return err
	}
	var data evaluation.NewBackground
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBackground")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ev, err := api.evalSvc.RecordBackground(ctx.Request().Context(), a.ID, data.BackgroundInformation)
	if err != nil {
		return errors.Wrap(err, "recording background")
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *assessmentApi) finalizeEvaluation(ctx echo.Context) error {
	a, err := contextAssessment(ctx)
	if err != nil {
		return err
	}
	var data evaluation.FinalizeEvaluation
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FinalizeEvaluation")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ev, err := api.evalSvc.Finalize(ctx.Request().Context(), a.ID, data)
	if err != nil {
		return errors.Wrap(err, "finalizing evaluation")
	}
	payload, err := api.evalSvc.BuildReportPayload(ctx.Request().Context(), ev)
	if err != nil {
		return errors.Wrap(err, "building report payload")
	}
	return ctx.JSON(http.StatusOK, payload)
}

func (api *assessmentApi) evaluationPDF(ctx echo.Context) error {
	ev, err := api.evaluation(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	filename, err := api.evalSvc.RenderDocument(ctx.Request().Context(), &buf, ev, api.center)
	if err != nil {
		return errors.Wrap(err, "rendering evaluation")
	}
	return sendPDF(ctx, filename, buf.Bytes())
}

func (api *assessmentApi) emailEvaluation(ctx echo.Context) error {
	ev, err := api.evaluation(ctx)
	if err != nil {
		return err
	}
	if err = api.evalSvc.EmailReport(ctx.Request().Context(), ev, api.center); err != nil {
		return errors.Wrap(err, "emailing evaluation")
	}
	return ctx.JSON(http.StatusAccepted, SuccessResponse{Success: "The evaluation report is on its way."})
}

func (api *assessmentApi) evaluationDefaults(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.evalSvc.Defaults())
}
