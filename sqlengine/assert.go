package sqlengine

import "github.com/kolibri-data/relation/engine"

var _ engine.Engine = (*Engine[Column])(nil)
