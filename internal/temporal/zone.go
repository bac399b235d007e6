package temporal

import (
	"os"
	"strings"
	"sync"
	"time"
)

// Zone is a resolved IANA timezone
type Zone struct {
	name string
	loc  *time.Location
}

// UTC is the zone used when nothing else resolves
var UTC = Zone{name: "UTC", loc: time.UTC}

// ZoneOf wraps an already loaded location
func ZoneOf(loc *time.Location) Zone {
	if loc == nil {
		return UTC
	}
	return Zone{name: loc.String(), loc: loc}
}

// Name returns the IANA identifier
func (z Zone) Name() string {
	if z.loc == nil {
		return UTC.name
	}
	return z.name
}

// Location returns the rule set for the zone. A zero Zone behaves as UTC.
func (z Zone) Location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

// Resolver resolves zone identifiers and reports the process-local zone
type Resolver interface {
	ResolveZone(name string) (Zone, bool)
	CurrentZoneName() string
}

// SystemZones resolves names against the host tz database. The local zone
// name is fixed at construction and never re-read during a session.
type SystemZones struct {
	local string

	mu    sync.Mutex
	cache map[string]Zone
}

// NewSystemZones creates a resolver whose current zone is localName. An
// empty name falls back to $TZ and then UTC.
func NewSystemZones(localName string) *SystemZones {
	localName = strings.TrimSpace(localName)
	if localName == "" {
		localName = strings.TrimPrefix(os.Getenv("TZ"), ":")
	}
	if localName == "" || localName == "Local" {
		localName = UTC.name
	}
	s := &SystemZones{cache: make(map[string]Zone)}
	if _, ok := s.ResolveZone(localName); !ok {
		localName = UTC.name
	}
	s.local = localName
	return s
}

// ResolveZone loads name from the tz database
func (s *SystemZones) ResolveZone(name string) (Zone, bool) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return Zone{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if z, ok := s.cache[name]; ok {
		return z, true
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, false
	}
	z := Zone{name: name, loc: loc}
	s.cache[name] = z
	return z, true
}

// CurrentZoneName returns the process-local zone identifier
func (s *SystemZones) CurrentZoneName() string {
	return s.local
}

// LocalZone resolves the resolver's current zone, falling back to UTC
func LocalZone(r Resolver) Zone {
	if z, ok := r.ResolveZone(r.CurrentZoneName()); ok {
		return z
	}
	return UTC
}
