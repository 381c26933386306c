package container

import (
	"fmt"
	reflectPkg "reflect"

	"github.com/danpasecinic/spindle/discovery"
	"github.com/danpasecinic/spindle/internal/errs"
)

// Discover binds implicitly every type named by the resource lists the
// sources hold. A location already visited is skipped.
func (c *Container) Discover(resource string, sources ...discovery.Source) error {
	if err := c.checkMutable("Discover"); err != nil {
		return err
	}
	if resource == "" {
		resource = discovery.DefaultResource
	}

	for _, src := range sources {
		locations, err := src.Locations(resource)
		if err != nil {
			return errs.New(errs.CodeConfiguration, "error while discovering "+resource, err)
		}
		for _, loc := range locations {
			if err := c.discoverLocation(src, loc); err != nil {
				return err
			}
		}
	}
	return nil
}

// discoverLocation marks loc visited while it is scanned. A failed scan
// clears the mark so that a later Discover retries the location.
func (c *Container) discoverLocation(src discovery.Source, loc string) error {
	c.mu.Lock()
	if c.visited[loc] {
		c.mu.Unlock()
		c.logger.Debug("location skipped", "location", loc)
		return nil
	}
	c.visited[loc] = true
	c.mu.Unlock()

	n, err := c.scanLocation(src, loc)
	if err != nil {
		c.mu.Lock()
		delete(c.visited, loc)
		c.mu.Unlock()
		return err
	}
	c.logger.Debug("location discovered", "location", loc, "types", n)
	return nil
}

func (c *Container) scanLocation(src discovery.Source, loc string) (int, error) {
	rc, err := src.Open(loc)
	if err != nil {
		return 0, errs.New(errs.CodeConfiguration, "error while discovering "+loc, err)
	}
	names, err := discovery.ReadNames(rc)
	_ = rc.Close()
	if err != nil {
		return 0, errs.New(errs.CodeConfiguration, "error while discovering "+loc, err)
	}

	found := make([]reflectPkg.Type, 0, len(names))
	for _, name := range names {
		t, ok := c.catalog.Lookup(name)
		if !ok {
			return 0, errs.Configuration("error while discovering %s: unknown type %q", loc, name)
		}
		found = append(found, t)
	}
	for _, t := range found {
		if err := c.BindImplicit(t); err != nil {
			return 0, errs.New(errs.CodeConfiguration, fmt.Sprintf("error while discovering %s", loc), err)
		}
	}
	return len(found), nil
}

// Visited reports whether loc has been discovered.
func (c *Container) Visited(loc string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.visited[loc]
}
