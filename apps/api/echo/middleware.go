package echoapi

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/child"
	"github.com/trezcool/milestone/core/user"
)

const contextObjectKey = "object"

// roleMiddleware lets through users with any of `roles`.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.hasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(user.RoleAdmin)
}

// objectMiddleware loads the object identified by the `:id` path param into the context.
func objectMiddleware(load func(ctx context.Context, id int) (interface{}, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := pathID(ctx)
			if err != nil {
				return errHttpNotFound
			}
			obj, err := load(ctx.Request().Context(), id)
			if err != nil {
				return err
			}
			ctx.Set(contextObjectKey, obj)
			return next(ctx)
		}
	}
}

func childMiddleware(svc child.ServiceInterface) echo.MiddlewareFunc {
	return objectMiddleware(func(ctx context.Context, id int) (interface{}, error) {
		return svc.Get(ctx, id)
	})
}

func assessmentMiddleware(svc assessment.ServiceInterface) echo.MiddlewareFunc {
	return objectMiddleware(func(ctx context.Context, id int) (interface{}, error) {
		return svc.Get(ctx, id)
	})
}
