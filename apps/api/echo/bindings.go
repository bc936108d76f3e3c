package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/milestone/core"
	"github.com/trezcool/milestone/core/assessment"
	"github.com/trezcool/milestone/core/child"
)

var (
	orderingParam = "ordering"

	errObjNotFoundInCtx = errors.New("object not found in echo.Context")
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// pathID parses the `:id` path param.
func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func contextChild(ctx echo.Context) (child.Child, error) {
	c, ok := ctx.Get(contextObjectKey).(child.Child)
	if !ok {
		return child.Child{}, errors.Wrap(errObjNotFoundInCtx, "retrieving child from context")
	}
	return c, nil
}

func contextAssessment(ctx echo.Context) (assessment.Assessment, error) {
	a, ok := ctx.Get(contextObjectKey).(assessment.Assessment)
	if !ok {
		return assessment.Assessment{}, errors.Wrap(errObjNotFoundInCtx, "retrieving assessment from context")
	}
	return a, nil
}
