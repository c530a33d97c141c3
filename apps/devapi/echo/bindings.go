package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/aliqadomi777/front-end-lms/services/lmsapi"
)

const (
	pageParam    = "page"
	limitParam   = "limit"
	defaultLimit = 10
	maxLimit     = 100
)

type Paging struct {
	Page  int
	Limit int
}

// Bind reads page & limit from the query string; missing or bad values fall back to defaults.
func (p *Paging) Bind(ctx echo.Context) {
	p.Page, p.Limit = 1, defaultLimit
	if n, err := strconv.Atoi(ctx.QueryParam(pageParam)); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(ctx.QueryParam(limitParam)); err == nil && n > 0 {
		p.Limit = n
		if p.Limit > maxLimit {
			p.Limit = maxLimit
		}
	}
}

// bounds returns the slice bounds of the page within total items.
func (p Paging) bounds(total int) (int, int) {
	start := (p.Page - 1) * p.Limit
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return start, end
}

func (p Paging) pagination(total int) lmsapi.Pagination {
	return lmsapi.Pagination{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: (total + p.Limit - 1) / p.Limit,
	}
}
