package comm

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/ntons/mutant/mutantd/internal/srv"
)

var (
	serviceMutex    sync.Mutex
	serviceCreators = make(map[string]ServiceCreator)
)

type ServiceCreator func(json.RawMessage) (srv.Service, error)

func RegisterService(name string, creator ServiceCreator) {
	serviceMutex.Lock()
	defer serviceMutex.Unlock()
	serviceCreators[name] = creator
}

func CreateService(name string, cfg json.RawMessage) (srv.Service, error) {
	serviceMutex.Lock()
	defer serviceMutex.Unlock()
	if creator, ok := serviceCreators[name]; !ok {
		return nil, fmt.Errorf("unregistered service: %s", name)
	} else {
		return creator(cfg)
	}
}

// RegisteredServices lists registered service names in order.
func RegisteredServices() (names []string) {
	serviceMutex.Lock()
	defer serviceMutex.Unlock()
	for name := range serviceCreators {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}
