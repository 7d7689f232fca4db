package modkit

import "taskdata/internal/modkit/module"

// Module is the common surface for service modules: a name, a port set for cross wiring
// and optional routes on the ops listener
type Module = module.Module

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module
