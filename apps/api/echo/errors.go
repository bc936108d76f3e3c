package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/child"
	"github.com/trezcool/milestone/core/evaluation"
	"github.com/trezcool/milestone/core/skill"
	"github.com/trezcool/milestone/core/user"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")

	errIntegrityMsg = "the request could not be completed"

	// integrity errors whose message is safe to show
	publicIntegrityErrors = []error{
		skill.ErrCategoryHasQuestions,
		skill.ErrQuestionAnswered,
	}

	// domain lookups answered with 404
	notFoundErrors = []error{
		user.ErrNotFound,
		skill.ErrCategoryNotFound,
		skill.ErrQuestionNotFound,
		child.ErrNotFound,
		assessment.ErrNotFound,
		evaluation.ErrNotFound,
	}
)

func isNotFound(err error) bool {
	return isOneOf(err, notFoundErrors)
}

func isOneOf(err error, targets []error) bool {
	for _, target := range targets {
		if err == target {
			return true
		}
	}
	return false
}

// contextLogUser returns the authenticated user as known from the JWT claims (zero if anonymous).
func contextLogUser(ctx echo.Context) user.User {
	var usr user.User
	if claims, err := getContextClaims(ctx); err == nil {
		usr.ID = claims.UserID()
		usr.Name = claims.Name
		usr.Email = claims.Email
		usr.Role = claims.Role
	}
	return usr
}

// requestExtras identifies the failed request in error reports.
func requestExtras(ctx echo.Context) map[string]interface{} {
	return map[string]interface{}{
		"request_id": ctx.Response().Header().Get(echo.HeaderXRequestID),
		"method":     ctx.Request().Method,
		"path":       ctx.Path(),
	}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[fieldPath(vErr)] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.IntegrityError:
			code = http.StatusUnprocessableEntity
			if isOneOf(errors.Cause(origErr.Err), publicIntegrityErrors) {
				message = origErr.Error()
				break
			}
			message = errIntegrityMsg
			logger.Error(errIntegrityMsg, errors.Wrap(err, errIntegrityMsg), contextLogUser(ctx), requestExtras(ctx))
		case *core.ConflictError:
			code = http.StatusConflict
			message = origErr.Error()
		default:
			if isNotFound(cause) {
				code = http.StatusNotFound
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			logger.Error(msg, errors.Wrap(err, msg), contextLogUser(ctx), requestExtras(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// fieldPath returns the JSON path of the invalid field, without the top-level struct name:
// "NewAssessment.responses[0].question_id" -> "responses[0].question_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	for i, r := range ns {
		if r == '.' {
			return ns[i+1:]
		}
	}
	return fe.Field()
}
