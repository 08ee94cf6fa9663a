package handlers

import (
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"travel-agency/models"
)

// listQuery reads the paging, sorting and search parameters of a listing.
// filters names the query parameters copied into exact match filters.
func listQuery(e *core.RequestEvent, filters ...string) models.ListQuery {
	values := e.Request.URL.Query()

	q := models.ListQuery{
		Sort:          values.Get("sort"),
		Search:        strings.TrimSpace(values.Get("q")),
		IncludeHidden: values.Get("all") == "1" || values.Get("all") == "true",
	}
	q.Page, _ = strconv.Atoi(values.Get("page"))
	q.PerPage, _ = strconv.Atoi(values.Get("per_page"))

	for _, name := range filters {
		if v := values.Get(name); v != "" {
			if q.Filters == nil {
				q.Filters = map[string]any{}
			}
			q.Filters[name] = v
		}
	}
	return q.Normalize()
}
