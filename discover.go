package spindle

import (
	"github.com/danpasecinic/spindle/discovery"
)

// Discover binds implicitly every type listed under
// discovery.DefaultResource in the sources. Each location is read once
// per injector.
func (i *Injector) Discover(sources ...discovery.Source) error {
	return i.internal.Discover(discovery.DefaultResource, sources...)
}

// DiscoverResource is Discover with another resource name.
func (i *Injector) DiscoverResource(resource string, sources ...discovery.Source) error {
	return i.internal.Discover(resource, sources...)
}

// Visited reports whether a discovery location has been read.
func (i *Injector) Visited(location string) bool {
	return i.internal.Visited(location)
}
