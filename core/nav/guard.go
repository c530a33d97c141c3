package nav

import (
	"path"
	"strings"

	"github.com/aliqadomi777/front-end-lms/core/session"
	"github.com/aliqadomi777/front-end-lms/core/user"
)

type Action int

const (
	// Wait withholds a protected subtree until the session settles.
	Wait Action = iota
	Mount
	Redirect
	NotFound
)

func (a Action) String() string {
	switch a {
	case Wait:
		return "wait"
	case Mount:
		return "mount"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not-found"
	}
	return "unknown"
}

type Decision struct {
	Action Action
	// Target is the path to mount or redirect to.
	Target string
}

const authPrefix = "/auth"

// Guard decides what the router should do with a request for p given the current session.
func Guard(snap session.Snapshot, p string) Decision {
	p = cleanPath(p)
	if p == "/" {
		return Decision{Action: Redirect, Target: LoginPath}
	}
	if within(p, authPrefix) {
		return Decision{Action: Mount, Target: p}
	}

	for _, role := range user.AllRoles {
		subtree := Subtree(role)
		if !within(p, subtree) {
			continue
		}
		switch {
		case !snap.Status.Settled():
			return Decision{Action: Wait, Target: p}
		case !snap.Authenticated():
			return Decision{Action: Redirect, Target: LoginPath}
		case snap.Role != role:
			return Decision{Action: Redirect, Target: DashboardPath(snap.Role)}
		}
		return Decision{Action: Mount, Target: p}
	}
	return Decision{Action: NotFound, Target: p}
}

func within(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func cleanPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
