// Package nav is the hash-driven navigation state machine. Every route
// change — user action, fragment change, or process start — funnels
// through Navigate, which tears down capture sessions, applies auth
// guards, commits the route and runs the route's activation hook.
package nav

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/storywalk/storywalk/internal/utils"
	"github.com/storywalk/storywalk/pkg/api"
	"github.com/storywalk/storywalk/pkg/capture"
	"github.com/storywalk/storywalk/pkg/location"
	"github.com/storywalk/storywalk/pkg/session"
	"github.com/storywalk/storywalk/pkg/stories"
)

// View is what the renderer receives. Rendering is triggered by the
// navigator, never implicitly by store mutation.
type View struct {
	Route        Route
	LoggedIn     bool
	UserName     string
	Stories      []api.Story
	CaptureState capture.State
	PreviewRef   string
	Selected     *location.Coordinate
	Notices      []Notice
}

// Renderer is the render target boundary.
type Renderer interface {
	Render(v View)
}

// Location is the addressable-location contract: the fragment stays in
// sync with the active route so restart and back/forward reproduce it.
type Location interface {
	Fragment() string
	SetFragment(fragment string)
}

// Binding maps one event source to its handler. Activation hooks return
// these explicitly instead of wiring handlers into the render output.
type Binding struct {
	Event  string
	Handle func(ctx context.Context, args []string) error
}

// Config carries the collaborators a Navigator needs. The session store
// is passed in explicitly; there is no ambient lookup.
type Config struct {
	Session  *session.Store
	API      *api.Client
	Capture  *capture.Controller
	Selector *location.Selector
	Syncer   *stories.Syncer
	Renderer Renderer
	Location Location
	// Confirm asks the one blocking question in the app, before logout.
	Confirm func(prompt string) bool
}

type Navigator struct {
	session  *session.Store
	api      *api.Client
	capture  *capture.Controller
	selector *location.Selector
	syncer   *stories.Syncer
	renderer Renderer
	loc      Location
	notices  *Notices
	confirm  func(prompt string) bool

	current  Route
	started  bool
	bindings map[string]Binding

	// Draft description survives a failed validation so the user can
	// correct it.
	draftDescription string
}

func New(cfg Config) *Navigator {
	n := &Navigator{
		session:  cfg.Session,
		api:      cfg.API,
		capture:  cfg.Capture,
		selector: cfg.Selector,
		syncer:   cfg.Syncer,
		renderer: cfg.Renderer,
		loc:      cfg.Location,
		notices:  NewNotices(),
		confirm:  cfg.Confirm,
		bindings: map[string]Binding{},
	}
	if n.syncer != nil {
		n.syncer.Relevant = func() bool { return n.started && n.current == RouteHome }
		n.syncer.OnUpdate = n.render
		n.syncer.Notify = n.notices.Post
	}
	return n
}

func (n *Navigator) Notices() *Notices {
	return n.notices
}

func (n *Navigator) Current() Route {
	return n.current
}

// Start resolves the initial route from the current fragment, defaulting
// to home when it is empty.
func (n *Navigator) Start(ctx context.Context) {
	fragment := ""
	if n.loc != nil {
		fragment = n.loc.Fragment()
	}
	n.Navigate(ctx, ParseRoute(fragment))
}

// OnFragmentChange re-resolves the route after the fragment moved
// underneath us (back/forward or a typed address).
func (n *Navigator) OnFragmentChange(ctx context.Context) {
	if n.loc == nil {
		return
	}
	n.Navigate(ctx, ParseRoute(n.loc.Fragment()))
}

// Navigate is the single transition entry point. A guard redirect is a
// defined transition, not an error, so nothing is returned. Re-entering
// the current route re-renders without corrupting state.
func (n *Navigator) Navigate(ctx context.Context, target Route) {
	// Navigation always wins over capture: stop the stream and discard
	// any in-flight preview before anything else.
	if n.capture != nil && n.capture.State() != capture.StateIdle {
		n.capture.Reset()
	}

	// addStory is gated behind authentication.
	if target == RouteAddStory && !n.session.IsLoggedIn() {
		n.notices.Post("error", "You must be logged in to add a story.")
		n.Navigate(ctx, RouteLogin)
		return
	}

	// login is unreachable while authenticated.
	if target == RouteLogin && n.session.IsLoggedIn() {
		n.Navigate(ctx, RouteHome)
		return
	}

	// Leaving the submission route drops the picked location.
	if n.started && n.current == RouteAddStory && target != RouteAddStory && n.selector != nil {
		n.selector.Clear()
	}

	n.current = target
	n.started = true
	if n.loc != nil {
		n.loc.SetFragment(target.Token())
	}
	n.render()
	n.activate(ctx, target)
}

func (n *Navigator) render() {
	if n.renderer == nil {
		return
	}
	v := View{
		Route:    n.current,
		LoggedIn: n.session.IsLoggedIn(),
		UserName: n.session.UserName(),
		Stories:  n.session.Stories(),
		Notices:  n.notices.Active(),
	}
	if n.capture != nil {
		v.CaptureState = n.capture.State()
		if p := n.capture.CurrentPreview(); p != nil {
			v.PreviewRef = p.Ref
		}
	}
	if n.selector != nil {
		v.Selected = n.selector.Selected()
	}
	n.renderer.Render(v)
}

// activate installs the route's binding table and runs its entry action.
func (n *Navigator) activate(ctx context.Context, route Route) {
	n.bindings = map[string]Binding{}
	n.bind(Binding{Event: "logout", Handle: n.handleLogout})

	switch route {
	case RouteHome:
		n.bind(Binding{Event: "refresh", Handle: func(context.Context, []string) error {
			n.syncer.Refresh()
			return nil
		}})
		n.syncer.Refresh()
	case RouteAddStory:
		n.selector.Activate()
		n.bind(
			Binding{Event: "camera", Handle: n.handleStartCamera},
			Binding{Event: "capture", Handle: n.handleCapture},
			Binding{Event: "stop", Handle: n.handleStopCamera},
			Binding{Event: "file", Handle: n.handleSelectFile},
			Binding{Event: "locate", Handle: n.handleLocate},
			Binding{Event: "pick", Handle: n.handlePick},
			Binding{Event: "submit", Handle: n.handleSubmit},
		)
	case RouteLogin:
		n.bind(
			Binding{Event: "login", Handle: n.handleLogin},
			Binding{Event: "register", Handle: n.handleRegister},
		)
	}
}

func (n *Navigator) bind(bindings ...Binding) {
	for _, b := range bindings {
		n.bindings[b.Event] = b
	}
}

// Bindings exposes the active event table, mainly for the event loop and
// for tests.
func (n *Navigator) Bindings() []string {
	events := make([]string, 0, len(n.bindings))
	for event := range n.bindings {
		events = append(events, event)
	}
	return events
}

// Dispatch routes an event to its active binding. An event with no
// binding indicates a route/view mismatch: it is logged and ignored
// rather than treated as an error.
func (n *Navigator) Dispatch(ctx context.Context, event string, args ...string) error {
	b, ok := n.bindings[event]
	if !ok {
		utils.Log.Debugf("no handler for %q on route %s", event, n.current)
		return nil
	}
	return b.Handle(ctx, args)
}

func (n *Navigator) handleStartCamera(ctx context.Context, _ []string) error {
	if err := n.capture.StartCamera(ctx); err != nil {
		// Capability denial is recovered with a message and the file
		// fallback, never a failure of the route.
		n.notices.Post("error", "Camera unavailable: "+err.Error()+". You can select an image file instead.")
		n.render()
		return nil
	}
	n.render()
	return nil
}

func (n *Navigator) handleCapture(_ context.Context, _ []string) error {
	if _, err := n.capture.Capture(); err != nil {
		n.notices.Post("error", "Could not take photo: "+err.Error())
		n.render()
		return nil
	}
	n.notices.Post("success", "Photo captured.")
	n.render()
	return nil
}

func (n *Navigator) handleStopCamera(_ context.Context, _ []string) error {
	n.capture.Stop()
	n.render()
	return nil
}

func (n *Navigator) handleSelectFile(_ context.Context, args []string) error {
	if len(args) != 1 {
		n.notices.Post("error", "Usage: file <path>")
		n.render()
		return nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		n.notices.Post("error", "Could not read file: "+err.Error())
		n.render()
		return nil
	}
	n.capture.SelectFile(filepath.Base(args[0]), data)
	n.render()
	return nil
}

func (n *Navigator) handleLocate(ctx context.Context, _ []string) error {
	if _, err := n.selector.UseCurrentPosition(ctx); err != nil {
		n.notices.Post("error", "Could not get location: "+err.Error()+". You can pick a point on the map instead.")
		n.render()
		return nil
	}
	n.notices.Post("success", "Current location selected.")
	n.render()
	return nil
}

func (n *Navigator) handlePick(_ context.Context, args []string) error {
	if len(args) != 2 {
		n.notices.Post("error", "Usage: pick <lat> <lon>")
		n.render()
		return nil
	}
	lat, errLat := strconv.ParseFloat(args[0], 64)
	lon, errLon := strconv.ParseFloat(args[1], 64)
	if errLat != nil || errLon != nil {
		n.notices.Post("error", "Coordinates must be numbers.")
		n.render()
		return nil
	}
	n.selector.Select(location.Coordinate{Lat: lat, Lon: lon})
	n.render()
	return nil
}

func (n *Navigator) handleSubmit(ctx context.Context, args []string) error {
	description := strings.TrimSpace(strings.Join(args, " "))
	if description == "" {
		description = n.draftDescription
	}
	n.draftDescription = description

	draft := stories.Draft{
		Description: description,
		Photo:       n.capture.CurrentPhoto(),
		Location:    n.selector.Selected(),
	}
	if err := stories.Submit(n.api, n.session, draft); err != nil {
		// Validation and upload failures both keep the form state for
		// correction.
		n.notices.Post("error", err.Error())
		n.render()
		return nil
	}

	n.notices.Post("success", "Story shared!")
	n.draftDescription = ""
	n.capture.Reset()
	n.selector.Clear()
	n.syncer.Refresh()
	n.Navigate(ctx, RouteHome)
	return nil
}

func (n *Navigator) handleLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		n.notices.Post("error", "Usage: login <email> <password>")
		n.render()
		return nil
	}
	email, password := args[0], args[1]
	if email == "" || password == "" {
		n.notices.Post("error", "Email and password are required.")
		n.render()
		return nil
	}

	auth, err := n.api.Login(email, password)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			n.notices.Post("error", "Login failed: "+apiErr.Error())
		} else {
			n.notices.Post("error", "Login failed. Check your connection and try again.")
		}
		n.render()
		return nil
	}

	if err := n.session.SetAuth(auth.Token, session.User{Name: auth.Name, UserID: auth.UserID}); err != nil {
		utils.Log.Warnf("persisting session: %v", err)
		n.notices.Post("error", "Login failed: "+err.Error())
		n.render()
		return nil
	}
	n.notices.Post("success", "Welcome, "+auth.Name+"!")
	n.syncer.Refresh()
	n.Navigate(ctx, RouteHome)
	return nil
}

func (n *Navigator) handleRegister(_ context.Context, args []string) error {
	if len(args) != 3 {
		n.notices.Post("error", "Usage: register <name> <email> <password>")
		n.render()
		return nil
	}
	name, email, password := args[0], args[1], args[2]
	if name == "" || email == "" || password == "" {
		n.notices.Post("error", "All registration fields are required.")
		n.render()
		return nil
	}
	if len(password) < 8 {
		n.notices.Post("error", "Password must be at least 8 characters.")
		n.render()
		return nil
	}

	if err := n.api.Register(name, email, password); err != nil {
		n.notices.Post("error", "Registration failed: "+err.Error())
		n.render()
		return nil
	}
	n.notices.Post("success", "Registered! You can now log in.")
	n.render()
	return nil
}

func (n *Navigator) handleLogout(ctx context.Context, _ []string) error {
	if n.confirm != nil && !n.confirm("Log out?") {
		return nil
	}
	if err := n.session.ClearAuth(); err != nil {
		utils.Log.Warnf("clearing session: %v", err)
	}
	n.notices.Post("info", "You have been logged out.")
	n.Navigate(ctx, RouteLogin)
	return nil
}
