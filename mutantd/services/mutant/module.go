package mutant

import (
	"encoding/json"

	"github.com/ntons/mutant/mutantd/internal/comm"
	"github.com/ntons/mutant/mutantd/internal/srv"
)

func init() {
	comm.RegisterService("mutant", func(jb json.RawMessage) (srv.Service, error) {
		s, err := createServer(jb)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
