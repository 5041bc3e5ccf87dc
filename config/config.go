// Package config declares the parameters that construct a processor and
// its engines: the SQL engine's DSN and connection pool size, and the
// iteration engine's spill threshold and directory (spec §2's ambient
// stack). Parameters are set, in increasing priority, from a compiled-in
// default, an optional HCL config file (load.go), and -param=value
// command-line overrides.
package config

import (
	"flag"
	"fmt"
	"sort"
	"strings"
)

// Option controls when a Param may be set.
type Option int

const (
	Default      Option = 0
	NoUpdate     Option = 1 << iota // cannot be updated after startup
	NoConfigFile                    // cannot be set in a config file
)

func addOption(s, opt string) string {
	if s != "" {
		s += " | "
	}
	return s + opt
}

func (o Option) String() string {
	var s string
	if (o & NoUpdate) != 0 {
		s = addOption(s, "NoUpdate")
	}
	if (o & NoConfigFile) != 0 {
		s = addOption(s, "NoConfigFile")
	}
	if s == "" {
		return "Default"
	}
	return s
}

// Param is one named, typed configuration value.
type Param struct {
	Name    string
	Val     Value
	Options Option
}

type nameVal struct {
	name string
	val  string
}

type config struct {
	params     map[string]*Param
	args       []nameVal
	configFile string
	noConfig   bool
}

var cfg = &config{}

func (cfg *config) Set(s string) error {
	ss := strings.SplitN(s, "=", 2)
	if len(ss) != 2 {
		return fmt.Errorf("config: expected name=value; got %s", s)
	}
	cfg.args = append(cfg.args, nameVal{ss[0], ss[1]})
	return nil
}

func (*config) String() string {
	return ""
}

func (cfg *config) flags(fs *flag.FlagSet, param, noConfig, configFile string) {
	fs.Var(cfg, param, "set `param=value`")
	if noConfig != "" {
		fs.BoolVar(&cfg.noConfig, noConfig, false, "don't load a config file")
	}
	if configFile != "" {
		fs.StringVar(&cfg.configFile, configFile, "", "`file` to load config from")
	}
}

// Flags registers the -param and -noConfig/-configFile flags on
// flag.CommandLine.
func Flags(param, noConfig, configFile string) {
	cfg.flags(flag.CommandLine, param, noConfig, configFile)
}

type paramSlice []*Param

func (ps paramSlice) Len() int      { return len(ps) }
func (ps paramSlice) Swap(i, j int) { ps[i], ps[j] = ps[j], ps[i] }
func (ps paramSlice) Less(i, j int) bool {
	return strings.Compare(ps[i].Name, ps[j].Name) < 0
}

func (cfg *config) allParams() []*Param {
	list := make([]*Param, 0, len(cfg.params))
	for _, param := range cfg.params {
		list = append(list, param)
	}
	sort.Sort(paramSlice(list))
	return list
}

// AllParams returns every registered Param, sorted by name.
func AllParams() []*Param {
	return cfg.allParams()
}

// ListConfig reports every param's current value, one "name=value"
// entry per param, sorted by name.
func ListConfig() []string {
	lines := make([]string, 0, len(cfg.params))
	for _, param := range cfg.allParams() {
		lines = append(lines, fmt.Sprintf("%s=%s", param.Name, param.Val))
	}
	return lines
}

func (cfg *config) setParam(name, val string, opt Option) error {
	param, ok := cfg.params[name]
	if !ok {
		return fmt.Errorf("%s is not a param", name)
	}
	if (param.Options & opt) != 0 {
		if opt == NoUpdate {
			return fmt.Errorf("%s may not be updated", name)
		}
		return fmt.Errorf("%s may not be set in a config file", name)
	}
	if err := param.Val.Set(val); err != nil {
		return fmt.Errorf("param %s: %s", name, err)
	}
	return nil
}

func (cfg *config) update(name, val string) error {
	return cfg.setParam(name, val, NoUpdate)
}

// Update sets an already-registered param, rejecting one declared
// NoUpdate — e.g. a running processor's pool size may still be tuned,
// but its SQL DSN may not (spec §2).
func Update(name, val string) error {
	return cfg.update(name, val)
}

func (cfg *config) load(configFile string) error {
	if !cfg.noConfig {
		if cfg.configFile != "" {
			configFile = cfg.configFile
		}
		if configFile != "" {
			if err := cfg.loadFile(configFile); err != nil {
				return err
			}
		}
	}
	for _, arg := range cfg.args {
		if err := cfg.setParam(arg.name, arg.val, Default); err != nil {
			return err
		}
	}
	return nil
}

// Load applies the HCL file at configFile (unless flags disabled or
// redirected it), then any -param=value flag overrides, in that
// priority order.
func Load(configFile string) error {
	return cfg.load(configFile)
}

func (cfg *config) boolParam(p *bool, name string, b bool, opts Option) *bool {
	*p = b
	cfg.param((*boolValue)(p), name, opts)
	return p
}

func BoolParam(p *bool, name string, b bool, opts Option) *bool {
	return cfg.boolParam(p, name, b, opts)
}

func (cfg *config) intParam(p *int, name string, i int, opts Option) *int {
	*p = i
	cfg.param((*intValue)(p), name, opts)
	return p
}

func IntParam(p *int, name string, i int, opts Option) *int {
	return cfg.intParam(p, name, i, opts)
}

func (cfg *config) int64Param(p *int64, name string, i int64, opts Option) *int64 {
	*p = i
	cfg.param((*int64Value)(p), name, opts)
	return p
}

func Int64Param(p *int64, name string, i int64, opts Option) *int64 {
	return cfg.int64Param(p, name, i, opts)
}

func (cfg *config) stringParam(p *string, name string, s string, opts Option) *string {
	*p = s
	cfg.param((*stringValue)(p), name, opts)
	return p
}

func StringParam(p *string, name string, s string, opts Option) *string {
	return cfg.stringParam(p, name, s, opts)
}

func (cfg *config) param(val Value, name string, opts Option) {
	if _, ok := cfg.params[name]; ok {
		panic(fmt.Sprintf("config: param redefined: %s", name))
	}
	if cfg.params == nil {
		cfg.params = make(map[string]*Param)
	}
	cfg.params[name] = &Param{name, val, opts}
}

// Parameter registers a Value under name directly, for a config type
// that has no dedicated *Param helper above.
func Parameter(val Value, name string, opts Option) {
	cfg.param(val, name, opts)
}
