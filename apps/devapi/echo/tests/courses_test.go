package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliqadomi777/front-end-lms/core/user"
	"github.com/aliqadomi777/front-end-lms/services/lmsapi"
	"github.com/aliqadomi777/front-end-lms/tests"
)

func Test_courseApi_list(t *testing.T) {
	api := testutil.StartDevAPI(t)

	tests := []struct {
		name     string
		query    string
		wantIDs  []int
		wantPage lmsapi.Pagination
	}{
		{"defaults", "", []int{1, 2, 3}, lmsapi.Pagination{Page: 1, Limit: 10, Total: 3, TotalPages: 1}},
		{"first page", "?page=1&limit=2", []int{1, 2}, lmsapi.Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2}},
		{"last page", "?page=2&limit=2", []int{3}, lmsapi.Pagination{Page: 2, Limit: 2, Total: 3, TotalPages: 2}},
		{"past the end", "?page=9&limit=2", []int{}, lmsapi.Pagination{Page: 9, Limit: 2, Total: 3, TotalPages: 2}},
		{"bad params", "?page=x&limit=-1", []int{1, 2, 3}, lmsapi.Pagination{Page: 1, Limit: 10, Total: 3, TotalPages: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, "/api/courses"+tt.query)
			api.App.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp struct {
				Data       []lmsapi.Course   `json:"data"`
				Pagination lmsapi.Pagination `json:"pagination"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			ids := make([]int, 0, len(resp.Data))
			for _, c := range resp.Data {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantPage, resp.Pagination)
		})
	}
}

func Test_courseApi_studentOnly(t *testing.T) {
	api := testutil.StartDevAPI(t)
	studentToken := loginToken(t, api, user.RoleStudent)
	instructorToken := loginToken(t, api, user.RoleInstructor)
	forbidden := []byte(`{"success":false,"message":"Permission denied"}`)

	for _, path := range []string{"/api/enrollments/my-enrollments", "/api/wishlist"} {
		t.Run(path, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, path, "")
			api.App.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized}, rec)

			req, rec = newAuthRequest(http.MethodGet, path, instructorToken)
			api.App.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: forbidden}, rec)

			req, rec = newAuthRequest(http.MethodGet, path, studentToken)
			api.App.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)
		})
	}

	t.Run("enrollments content", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/enrollments/my-enrollments?limit=1", studentToken)
		api.App.ServeHTTP(rec, req)

		var resp struct {
			Enrollments []lmsapi.Enrollment `json:"enrollments"`
			Pagination  lmsapi.Pagination   `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Enrollments, 1)
		assert.Equal(t, 1, resp.Enrollments[0].CourseID)
		assert.Equal(t, 2, resp.Pagination.Total)
	})
}
