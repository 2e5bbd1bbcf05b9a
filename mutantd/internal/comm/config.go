package comm

import (
	"encoding/json"
	"fmt"
	"strings"

	logcfg "github.com/ntons/log-go/config"

	"github.com/ntons/mutant/mutantd/internal/util"
)

// main configuration instance
var Config = &struct {
	// serving address
	Bind string
	// development | production
	Env string
	// only grpc enabled, http services are not served
	GrpcOnly bool
	// modularized service configuration
	Services map[string]json.RawMessage
	// log configuration
	Log *logcfg.Config
}{
	Bind: ":8080",
}

func IsDevEnv() bool {
	return strings.HasPrefix(strings.ToLower(Config.Env), "dev")
}

func LoadConfig(filePath string) (err error) {
	return util.LoadFromFile(filePath, Config)
}

// SelectServices narrows Config.Services to include, when given, and then
// drops exclude. An included service without a configuration section gets
// an empty one, so its own parser reports what is missing.
func SelectServices(include, exclude []string) error {
	if len(include) > 0 {
		registered := make(map[string]bool)
		for _, name := range RegisteredServices() {
			registered[name] = true
		}
		services := make(map[string]json.RawMessage, len(include))
		for _, name := range include {
			if !registered[name] {
				return fmt.Errorf("unknown service: %s", name)
			}
			if b := Config.Services[name]; len(b) > 0 {
				services[name] = b
			} else {
				services[name] = json.RawMessage("{}")
			}
		}
		Config.Services = services
	}
	for _, name := range exclude {
		delete(Config.Services, name)
	}
	return nil
}
