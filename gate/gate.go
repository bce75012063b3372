// Package gate decides, for a page request, whether to let it through or where
// to redirect it. It knows nothing about HTTP or tokens; callers pass in
// whether the request carried a valid admin session.
package gate

import "strings"

// Decision is either Allow or a redirect to Target.
type Decision struct {
	Allow  bool
	Target string
}

func allow() Decision { return Decision{Allow: true} }

func redirect(target string) Decision { return Decision{Target: target} }

type Gate struct {
	LoginPath string
	ZoneRoot  string
	Patterns  []string
}

func New(loginPath, zoneRoot string, patterns []string) Gate {
	if len(patterns) == 0 {
		patterns = []string{"/", loginPath, zoneRoot + "/:path*"}
	}
	return Gate{LoginPath: loginPath, ZoneRoot: zoneRoot, Patterns: patterns}
}

// Decide applies the redirect rules:
//
//	no session, login page        -> allow
//	no session, anything else     -> login page
//	session, login page           -> zone root
//	session, inside the zone      -> allow
//	session, anything else        -> zone root
func (g Gate) Decide(hasValidSession bool, path string) Decision {
	if !hasValidSession {
		if path == g.LoginPath {
			return allow()
		}
		return redirect(g.LoginPath)
	}
	if path == g.LoginPath {
		return redirect(g.ZoneRoot)
	}
	if g.InZone(path) {
		return allow()
	}
	return redirect(g.ZoneRoot)
}

// InZone matches whole path segments, so "/administrator" is not under "/admin".
func (g Gate) InZone(path string) bool {
	return underRoot(path, g.ZoneRoot)
}

// Intercepts reports whether path is covered by one of the configured
// patterns. Paths that are not intercepted never reach Decide.
func (g Gate) Intercepts(path string) bool {
	for _, p := range g.Patterns {
		if matchPattern(p, path) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, path string) bool {
	for _, suffix := range []string{"/:path*", "/*"} {
		if root, ok := strings.CutSuffix(pattern, suffix); ok {
			if root == "" {
				return strings.HasPrefix(path, "/")
			}
			return underRoot(path, root)
		}
	}
	return path == pattern
}

func underRoot(path, root string) bool {
	root = strings.TrimSuffix(root, "/")
	if root == "" {
		return strings.HasPrefix(path, "/")
	}
	return path == root || strings.HasPrefix(path, root+"/")
}
