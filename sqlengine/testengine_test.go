package sqlengine

import "github.com/kolibri-data/relation/capability"

// fakeEngine lets relation factories build a tree against sqlengine's
// full-support capabilities without touching a real *sqlx.DB.
type fakeEngine struct{ name string }

func (f fakeEngine) Name() string                       { return f.name }
func (f fakeEngine) Capabilities() capability.Capabilities { return sqlCaps{} }
