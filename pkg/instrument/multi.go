package instrument

import (
	"time"

	"github.com/wayfind-dev/wayfind/pkg/router"
)

// Multi fans router events out to several observers in order.
func Multi(observers ...router.Observer) router.Observer {
	return multiObserver(observers)
}

type multiObserver []router.Observer

func (m multiObserver) NavigationStart(to router.ParsedLocation) {
	for _, o := range m {
		o.NavigationStart(to)
	}
}

func (m multiObserver) NavigationEnd(from, to router.ParsedLocation, result router.NavigationResult, elapsed time.Duration) {
	for _, o := range m {
		o.NavigationEnd(from, to, result, elapsed)
	}
}

func (m multiObserver) LoaderStart(routeID string, cause router.Cause) {
	for _, o := range m {
		o.LoaderStart(routeID, cause)
	}
}

func (m multiObserver) LoaderEnd(routeID string, cause router.Cause, elapsed time.Duration, err error) {
	for _, o := range m {
		o.LoaderEnd(routeID, cause, elapsed, err)
	}
}

func (m multiObserver) CacheHit(routeID string) {
	for _, o := range m {
		o.CacheHit(routeID)
	}
}

func (m multiObserver) CacheMiss(routeID string) {
	for _, o := range m {
		o.CacheMiss(routeID)
	}
}
