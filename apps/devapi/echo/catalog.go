package echoapi

import (
	"sync"
	"time"

	"github.com/aliqadomi777/front-end-lms/core/user"
	"github.com/aliqadomi777/front-end-lms/services/lmsapi"
)

// Catalog holds the courses and per-student enrollments & wishlists.
type Catalog struct {
	mu          sync.RWMutex
	courses     []lmsapi.Course
	enrollments map[int][]lmsapi.Enrollment
	wishlists   map[int][]lmsapi.WishlistItem
	nextID      int
}

var defaultCourses = []lmsapi.Course{
	{ID: 1, Title: "Go Fundamentals", Category: "Programming", Instructor: "Instructor", Published: true},
	{ID: 2, Title: "Concurrency in Practice", Category: "Programming", Instructor: "Instructor", Published: true},
	{ID: 3, Title: "Intro to Databases", Category: "Data", Instructor: "Instructor", Published: true},
	{ID: 4, Title: "Web Security Basics", Category: "Security", Instructor: "Instructor", Published: false},
}

func NewCatalog() *Catalog {
	courses := make([]lmsapi.Course, len(defaultCourses))
	copy(courses, defaultCourses)
	return &Catalog{
		courses:     courses,
		enrollments: make(map[int][]lmsapi.Enrollment),
		wishlists:   make(map[int][]lmsapi.WishlistItem),
		nextID:      1,
	}
}

// Published returns the published courses.
func (c *Catalog) Published() []lmsapi.Course {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]lmsapi.Course, 0, len(c.courses))
	for _, crs := range c.courses {
		if crs.Published {
			out = append(out, crs)
		}
	}
	return out
}

func (c *Catalog) course(id int) (lmsapi.Course, bool) {
	for _, crs := range c.courses {
		if crs.ID == id {
			return crs, true
		}
	}
	return lmsapi.Course{}, false
}

// Enroll adds an enrollment for the student; enrolling twice is a no-op.
func (c *Catalog) Enroll(studentID, courseID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	crs, ok := c.course(courseID)
	if !ok {
		return false
	}
	for _, e := range c.enrollments[studentID] {
		if e.CourseID == courseID {
			return true
		}
	}
	c.enrollments[studentID] = append(c.enrollments[studentID], lmsapi.Enrollment{
		ID:         c.nextID,
		CourseID:   courseID,
		Course:     &crs,
		EnrolledAt: time.Now().UTC().Truncate(time.Second),
	})
	c.nextID++
	return true
}

// Wish adds the course to the student's wishlist; adding twice is a no-op.
func (c *Catalog) Wish(studentID, courseID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	crs, ok := c.course(courseID)
	if !ok {
		return false
	}
	for _, w := range c.wishlists[studentID] {
		if w.CourseID == courseID {
			return true
		}
	}
	c.wishlists[studentID] = append(c.wishlists[studentID], lmsapi.WishlistItem{ID: c.nextID, CourseID: courseID, Course: &crs})
	c.nextID++
	return true
}

func (c *Catalog) Enrollments(studentID int) []lmsapi.Enrollment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]lmsapi.Enrollment{}, c.enrollments[studentID]...)
}

func (c *Catalog) Wishlist(studentID int) []lmsapi.WishlistItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]lmsapi.WishlistItem{}, c.wishlists[studentID]...)
}

// SeedCatalog enrolls every student in the first two courses and wishes the third.
func SeedCatalog(cat *Catalog, users []user.User) {
	for _, usr := range users {
		if !usr.IsStudent() {
			continue
		}
		cat.Enroll(usr.ID, 1)
		cat.Enroll(usr.ID, 2)
		cat.Wish(usr.ID, 3)
	}
}
