package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl"
)

// loadFile decodes configFile as HCL into a generic value map and
// applies each entry as a NoConfigFile-checked param set. hcl.Decode
// yields Go-native types (bool, int, float64, string) per field; Set
// takes those through fmt.Sprint so every Value's own Set(string)
// parser is the single source of truth for what counts as a valid
// value, whether it arrived from this file or from a command-line
// flag.
func (cfg *config) loadFile(configFile string) error {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := hcl.Decode(&raw, string(b)); err != nil {
		return fmt.Errorf("%s: %s", configFile, err)
	}

	for name, val := range raw {
		if err := cfg.setParam(name, fmt.Sprint(val), NoConfigFile); err != nil {
			return fmt.Errorf("%s: %s", configFile, err)
		}
	}
	return nil
}
