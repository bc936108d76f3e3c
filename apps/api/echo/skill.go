package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core/skill"
)

type skillApi struct {
	svc      skill.ServiceInterface
	validate *validator.Validate
}

func registerSkillAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc skill.ServiceInterface, validate *validator.Validate) {
	api := skillApi{svc: svc, validate: validate}

	cg := g.Group("/skill-categories", jwt)
	cg.GET("", api.listCategories)
	cg.POST("", api.createCategory, adminMiddleware())
	cg.GET("/:id", api.retrieveCategory)
	cg.PUT("/:id", api.updateCategory, adminMiddleware())
	cg.DELETE("/:id", api.destroyCategory, adminMiddleware())

	qg := g.Group("/questions", jwt)
	qg.GET("", api.queryQuestions)
	qg.GET("/grouped", api.groupedQuestions)
	qg.POST("", api.createQuestion, adminMiddleware())
	qg.GET("/:id", api.retrieveQuestion)
	qg.PUT("/:id", api.updateQuestion, adminMiddleware())
	qg.DELETE("/:id", api.destroyQuestion, adminMiddleware())
}

// Categories

func (api *skillApi) listCategories(ctx echo.Context) error {
	cats, err := api.svc.ListCategories(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing categories")
	}
	if cats == nil {
		cats = []skill.Category{}
	}
	return ctx.JSON(http.StatusOK, cats)
}

func (api *skillApi) createCategory(ctx echo.Context) error {
	var data skill.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.svc.CreateCategory(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	return ctx.JSON(http.StatusCreated, cat)
}

func (api *skillApi) retrieveCategory(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	cat, err := api.svc.GetCategory(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding category")
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *skillApi) updateCategory(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data skill.UpdateCategory
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCategory")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.svc.UpdateCategory(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating category")
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *skillApi) destroyCategory(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCategory(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting category")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Questions

func (api *skillApi) queryQuestions(ctx echo.Context) error {
	var filter skill.QuestionFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []skill.Question{})
	}

	questions, err := api.svc.QueryQuestions(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	if questions == nil {
		questions = []skill.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *skillApi) groupedQuestions(ctx echo.Context) error {
	cats, err := api.svc.GroupedQuestions(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "grouping questions")
	}
	if cats == nil {
		cats = []skill.Category{}
	}
	return ctx.JSON(http.StatusOK, cats)
}

func (api *skillApi) createQuestion(ctx echo.Context) error {
	var data skill.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.CreateQuestion(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *skillApi) retrieveQuestion(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	q, err := api.svc.GetQuestion(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *skillApi) updateQuestion(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	var data skill.UpdateQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.UpdateQuestion(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *skillApi) destroyQuestion(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteQuestion(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}
