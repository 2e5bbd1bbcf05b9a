package indexing

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/ntons/log-go"
	"google.golang.org/grpc/status"

	"github.com/ntons/mutant/mutantd/internal/redis"
	"github.com/ntons/mutant/mutantd/internal/srv"
)

const maxBodySize = 64 * 1024

type server struct {
	cli         redis.Client
	maxValueLen int

	mu sync.Mutex
	m  map[string]*substrIndex

	stopOnce sync.Once
	stopped  chan struct{}
}

func newServer(cli redis.Client, maxValueLen int) *server {
	return &server{
		cli:         cli,
		maxValueLen: maxValueLen,
		m:           make(map[string]*substrIndex),
		stopped:     make(chan struct{}),
	}
}

func createServer(jb json.RawMessage) (_ *server, err error) {
	var cfg config
	if err = json.Unmarshal(jb, &cfg); err != nil {
		return
	} else if err = cfg.parse(); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cli, err := redis.DialAny(ctx, cfg.Redis, redis.WithHashTag())
	if err != nil {
		return
	}
	return newServer(cli, cfg.MaxValueLen), nil
}

func (*server) RegisterGrpc(*srv.GrpcServer) error { return srv.ErrUnimplemented }

func (s *server) RegisterHttp(mux *srv.HttpServeMux) error {
	mux.HandleFunc("/index/", s.handleIndex)
	return nil
}

func (s *server) Serve() {
	<-s.stopped
	if err := s.cli.Close(); err != nil {
		log.Warnf("failed to close redis: %v", err)
	}
}

func (s *server) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

func (s *server) getIndex(id string) *substrIndex {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.m[id]
	if !ok {
		idx = newSubstrIndex(id)
		s.m[id] = idx
	}
	return idx
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	st := status.Convert(err)
	writeJSON(w, runtime.HTTPStatusFromCode(st.Code()),
		map[string]string{"message": st.Message()})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed,
		map[string]string{"message": "method not allowed"})
}

// /index/{id} and /index/{id}/search
func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	id, action := strings.TrimPrefix(r.URL.Path, "/index/"), ""
	if i := strings.IndexByte(id, '/'); i >= 0 {
		id, action = id[:i], id[i+1:]
	}
	if id == "" {
		writeError(w, errNotFound)
		return
	}
	switch action {
	case "":
		switch r.Method {
		case http.MethodPut:
			s.handleUpdate(w, r, id)
		case http.MethodDelete:
			s.handleRemove(w, r, id)
		default:
			methodNotAllowed(w, "PUT, DELETE")
		}
	case "search":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		s.handleSearch(w, r, id)
	default:
		writeError(w, errNotFound)
	}
}

func (s *server) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	e := &entry{}
	if err := json.NewDecoder(
		http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(e); err != nil {
		writeError(w, errMalformedBody)
		return
	}
	if e.Key == "" {
		writeError(w, newInvalidArgumentError("key required"))
		return
	}
	if len(e.Value) > s.maxValueLen {
		writeError(w, newInvalidArgumentError(
			"value longer than %d bytes", s.maxValueLen))
		return
	}
	if err := s.getIndex(id).Update(r.Context(), s.cli, e); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *server) handleRemove(w http.ResponseWriter, r *http.Request, id string) {
	keys := r.URL.Query()["key"]
	if len(keys) == 0 {
		writeError(w, newInvalidArgumentError("key required"))
		return
	}
	n, err := s.getIndex(id).Remove(r.Context(), s.cli, keys)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request, id string) {
	q := r.URL.Query()
	limit := -1
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, newInvalidArgumentError("bad limit: %q", v))
			return
		}
		limit = n
	}
	res, err := s.getIndex(id).Search(r.Context(), s.cli, q.Get("value"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
