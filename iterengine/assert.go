package iterengine

import "github.com/kolibri-data/relation/engine"

var _ engine.Engine = (*Engine)(nil)
