// Package loader provides the feature loading system for the admin API.
//
// Each feature implements the Feature interface, which names it, reports whether
// it is enabled and registers its routes.
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager keeps registration order, so features such as 'sync' and 'guild'
// can be developed and tested in isolation and mounted together by the start command.
package loader
