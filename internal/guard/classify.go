package guard

import "strings"

// PathClass is the single class every request path falls into.
type PathClass int

const (
	ClassInternal PathClass = iota // framework assets, always pass through
	ClassPublic                    // marketing pages, fail-open
	ClassGuest                     // login/registration, fail-open
	ClassProtected                 // everything else, fail-closed
)

func (pc PathClass) String() string {
	switch pc {
	case ClassInternal:
		return "internal"
	case ClassPublic:
		return "public"
	case ClassGuest:
		return "guest"
	case ClassProtected:
		return "protected"
	default:
		return "unknown"
	}
}

// Classifier buckets request paths. Internal entries match by prefix;
// public and guest entries match exactly or as a "<path>/" prefix, so
// /auth/login/help is still a guest page but /pricing-x is not /pricing.
type Classifier struct {
	internalPrefixes []string
	publicPaths      []string
	guestPaths       []string
}

func NewClassifier(internalPrefixes, publicPaths, guestPaths []string) *Classifier {
	return &Classifier{
		internalPrefixes: internalPrefixes,
		publicPaths:      publicPaths,
		guestPaths:       guestPaths,
	}
}

func (cl *Classifier) Classify(path string) PathClass {
	if path == "" {
		path = "/"
	}

	for _, prefix := range cl.internalPrefixes {
		if strings.HasPrefix(path, prefix) {
			return ClassInternal
		}
	}

	if matchesPath(cl.guestPaths, path) {
		return ClassGuest
	}
	if matchesPath(cl.publicPaths, path) {
		return ClassPublic
	}

	return ClassProtected
}

func matchesPath(patterns []string, path string) bool {
	for _, p := range patterns {
		if p == path {
			return true
		}
		// Root matches only exactly; everything under it has its own class.
		if p != "/" && strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
