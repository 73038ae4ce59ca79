package nav

// Route is a named application screen reachable via the address fragment.
type Route int

const (
	RouteHome Route = iota
	RouteAddStory
	RouteLogin
)

// ParseRoute resolves a fragment token. Unrecognized tokens normalize to
// home; there is no error case.
func ParseRoute(token string) Route {
	switch token {
	case "add-story":
		return RouteAddStory
	case "login":
		return RouteLogin
	}
	return RouteHome
}

func (r Route) Token() string {
	switch r {
	case RouteAddStory:
		return "add-story"
	case RouteLogin:
		return "login"
	}
	return "home"
}

func (r Route) String() string {
	return r.Token()
}
