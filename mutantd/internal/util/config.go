package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flosch/pongo2/v4"
	"github.com/ghodss/yaml"
)

// LoadFromFile renders filePath as a pongo2 template and decodes the result,
// json or yaml by extension, into target.
func LoadFromFile(filePath string, target interface{}) (err error) {
	tpl, err := pongo2.FromFile(filePath)
	if err != nil {
		return
	}
	b, err := tpl.ExecuteBytes(nil)
	if err != nil {
		return
	}
	return decode(filepath.Ext(filePath), b, target)
}

func decode(ext string, b []byte, target interface{}) (err error) {
	switch ext {
	case ".json":
	case ".yml", ".yaml":
		if b, err = yaml.YAMLToJSON(b); err != nil {
			return
		}
	default:
		return fmt.Errorf("unknown config file extension: %v", ext)
	}
	return json.Unmarshal(b, target)
}

func init() {
	for _, e := range []struct {
		names  []string
		filter pongo2.FilterFunction
	}{
		{
			names:  []string{"env"},
			filter: filterEnv,
		},
	} {
		for _, name := range e.names {
			pongo2.RegisterFilter(name, e.filter)
		}
	}
}

// get value from environ
// eg: {{ default|env:name }}
func filterEnv(
	in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if value, found := os.LookupEnv(param.String()); found {
		return pongo2.AsSafeValue(value), nil
	}
	return in, nil
}
