package crud

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ErrNoReverseMatch is returned when a route name is unknown or its parameters do not fit.
var ErrNoReverseMatch = errors.New("no reverse match")

// Router registers named routes on a Fiber router and builds URLs back from them.
type Router struct {
	fr     fiber.Router
	prefix string

	mu     sync.RWMutex
	routes map[string]string
}

// NewRouter mounts routes under prefix on fr. Use an empty prefix for the root.
func NewRouter(fr fiber.Router, prefix string) *Router {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" {
		fr = fr.Group(prefix)
	}
	return &Router{fr: fr, prefix: prefix, routes: make(map[string]string)}
}

// Handle registers h for every method on path under name. The handler decides which
// methods it serves.
func (rt *Router) Handle(name, path string, h fiber.Handler) {
	rt.fr.All(path, h)
	rt.mu.Lock()
	rt.routes[name] = rt.prefix + path
	rt.mu.Unlock()
}

// Get registers a GET route under name.
func (rt *Router) Get(name, path string, h fiber.Handler) {
	rt.fr.Get(path, h)
	rt.mu.Lock()
	rt.routes[name] = rt.prefix + path
	rt.mu.Unlock()
}

// Pattern returns the registered path pattern for name.
func (rt *Router) Pattern(name string) (string, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	p, ok := rt.routes[name]
	return p, ok
}

// Reverse builds the path of the named route. kv holds parameter name/value pairs.
func (rt *Router) Reverse(name string, kv ...string) (string, error) {
	pattern, ok := rt.Pattern(name)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a registered route name", ErrNoReverseMatch, name)
	}
	if len(kv)%2 != 0 {
		return "", fmt.Errorf("%w: odd number of parameters for %q", ErrNoReverseMatch, name)
	}
	params := make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		params[kv[i]] = kv[i+1]
	}

	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		key, constraint := splitParam(seg[1:])
		v, ok := params[key]
		if !ok {
			return "", fmt.Errorf("%w: %q requires parameter %q", ErrNoReverseMatch, name, key)
		}
		if !fits(constraint, v) {
			return "", fmt.Errorf("%w: %q parameter %q=%q does not match <%s>", ErrNoReverseMatch, name, key, v, constraint)
		}
		segs[i] = url.PathEscape(v)
		delete(params, key)
	}
	if len(params) > 0 {
		return "", fmt.Errorf("%w: unexpected parameters for %q", ErrNoReverseMatch, name)
	}
	return strings.Join(segs, "/"), nil
}

func splitParam(s string) (key, constraint string) {
	s = strings.TrimRight(s, "?+*")
	if i := strings.IndexByte(s, '<'); i >= 0 {
		return s[:i], strings.TrimSuffix(s[i+1:], ">")
	}
	return s, ""
}

func fits(constraint, v string) bool {
	switch constraint {
	case "int":
		_, err := strconv.ParseInt(v, 10, 64)
		return err == nil
	case "guid":
		_, err := uuid.Parse(v)
		return err == nil
	case "":
		return v != ""
	}
	return true
}
