package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ontime/core/directory"
)

type institutionApi struct {
	service *directory.Service
}

func registerInstitutionAPI(g *echo.Group, svc *directory.Service) {
	api := institutionApi{service: svc}

	ig := g.Group("/institutions")
	ig.GET("", api.institutionsByID)
	ig.GET("/search", api.institutionSearch)
}

// institutionSearch does a capped name-substring search over the directory.
func (api *institutionApi) institutionSearch(ctx echo.Context) error {
	insts, err := api.service.Search(ctx.QueryParam("q"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, institutionsResponse{Institutions: insts})
}

// institutionsByID returns a read-only snapshot of the requested institutions.
// Unknown and malformed ids are skipped rather than erroring.
func (api *institutionApi) institutionsByID(ctx echo.Context) error {
	idsParam := ctx.QueryParam("ids")
	if idsParam == "" {
		return ctx.JSON(http.StatusOK, institutionsResponse{Institutions: []directory.Institution{}})
	}

	ids := make([]int, 0)
	for _, s := range strings.Split(idsParam, ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			ids = append(ids, id)
		}
	}

	insts, err := api.service.GetByIDs(ids...)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, institutionsResponse{Institutions: insts})
}
