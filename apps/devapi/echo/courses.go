package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aliqadomi777/front-end-lms/core/user"
)

type courseApi struct {
	accts   *Accounts
	catalog *Catalog
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, api *courseApi) {
	g.GET("/courses", api.list)

	students := roleMiddleware(user.RoleStudent)
	g.GET("/enrollments/my-enrollments", api.myEnrollments, jwt, students)
	g.GET("/wishlist", api.wishlist, jwt, students)
}

func (api *courseApi) list(ctx echo.Context) error {
	var paging Paging
	paging.Bind(ctx)

	courses := api.catalog.Published()
	start, end := paging.bounds(len(courses))
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       courses[start:end],
		"pagination": paging.pagination(len(courses)),
	})
}

func (api *courseApi) myEnrollments(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.accts)
	if err != nil {
		return err
	}
	var paging Paging
	paging.Bind(ctx)

	enrollments := api.catalog.Enrollments(usr.ID)
	start, end := paging.bounds(len(enrollments))
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"enrollments": enrollments[start:end],
		"pagination":  paging.pagination(len(enrollments)),
	})
}

func (api *courseApi) wishlist(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.accts)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "data": api.catalog.Wishlist(usr.ID)})
}
