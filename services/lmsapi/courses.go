package lmsapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

type (
	Course struct {
		ID          int    `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		Category    string `json:"category,omitempty"`
		Instructor  string `json:"instructor,omitempty"`
		Published   bool   `json:"published"`
	}

	Enrollment struct {
		ID         int       `json:"id"`
		CourseID   int       `json:"course_id"`
		Course     *Course   `json:"course,omitempty"`
		Progress   float64   `json:"progress"`
		EnrolledAt time.Time `json:"enrolled_at"`
	}

	WishlistItem struct {
		ID       int     `json:"id"`
		CourseID int     `json:"course_id"`
		Course   *Course `json:"course,omitempty"`
	}

	Pagination struct {
		Page       int `json:"page"`
		Limit      int `json:"limit"`
		Total      int `json:"total"`
		TotalPages int `json:"totalPages"`
	}
)

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// ListCourses returns one page of the course catalogue.
func (c *Client) ListCourses(ctx context.Context, page, limit int) ([]Course, Pagination, error) {
	env, err := c.do(ctx, http.MethodGet, "/courses", pageQuery(page, limit), c.authHeader(), nil, "Failed to fetch courses")
	if err != nil {
		return nil, Pagination{}, err
	}
	var (
		courses []Course
		pg      Pagination
	)
	if !env.field("courses", &courses) {
		env.field("data", &courses)
	}
	env.field("pagination", &pg)
	return courses, pg, nil
}

// MyEnrollments returns one page of the signed-in student's enrollments.
func (c *Client) MyEnrollments(ctx context.Context, page, limit int) ([]Enrollment, Pagination, error) {
	env, err := c.do(ctx, http.MethodGet, "/enrollments/my-enrollments", pageQuery(page, limit), c.authHeader(), nil, "Failed to fetch enrollments")
	if err != nil {
		return nil, Pagination{}, err
	}
	var (
		enrollments []Enrollment
		pg          Pagination
	)
	env.field("enrollments", &enrollments)
	env.field("pagination", &pg)
	return enrollments, pg, nil
}

// Wishlist returns the signed-in student's wishlist.
func (c *Client) Wishlist(ctx context.Context) ([]WishlistItem, error) {
	env, err := c.do(ctx, http.MethodGet, "/wishlist", nil, c.authHeader(), nil, "Failed to fetch wishlist")
	if err != nil {
		return nil, err
	}
	var items []WishlistItem
	env.field("data", &items)
	return items, nil
}
