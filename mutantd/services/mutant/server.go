package mutant

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/ntons/log-go"
	"google.golang.org/grpc/status"

	"github.com/ntons/mutant/mutantd/internal/dna"
	"github.com/ntons/mutant/mutantd/internal/redis"
	"github.com/ntons/mutant/mutantd/internal/srv"
)

const maxBodySize = 1 << 20

type server struct {
	store store
	cache *cache
	// clock of persisted records
	now func() time.Time

	stopOnce sync.Once
	stopped  chan struct{}
}

func newServer(st store, c *cache) *server {
	return &server{
		store:   st,
		cache:   c,
		now:     time.Now,
		stopped: make(chan struct{}),
	}
}

func createServer(jb json.RawMessage) (_ *server, err error) {
	var cfg config
	if err = json.Unmarshal(jb, &cfg); err != nil {
		return
	} else if err = cfg.parse(); err != nil {
		return
	}

	log.Debugf("mutant.cfg: %#v", cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := dialStore(ctx, cfg.Mongo, cfg.Database)
	if err != nil {
		return
	}
	var c *cache
	if len(cfg.Redis) > 0 {
		cli, err := redis.DialAny(ctx, cfg.Redis)
		if err != nil {
			st.Close(ctx)
			return nil, err
		}
		c = &cache{cli: cli, ttl: cfg.cacheTTL, statsTTL: cfg.statsTTL}
	}
	return newServer(st, c), nil
}

func (*server) RegisterGrpc(*srv.GrpcServer) error { return srv.ErrUnimplemented }

func (s *server) RegisterHttp(mux *srv.HttpServeMux) error {
	mux.HandleFunc("/mutant", s.handleMutant)
	mux.HandleFunc("/mutant/", s.handleMutant)
	mux.HandleFunc("/stats", s.handleStats)
	return nil
}

func (s *server) Serve() {
	<-s.stopped
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.store.Close(ctx); err != nil {
		log.Warnf("failed to close store: %v", err)
	}
	if err := s.cache.Close(); err != nil {
		log.Warnf("failed to close cache: %v", err)
	}
}

func (s *server) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

// detect classifies g, consulting the cache first and persisting fresh
// results.
func (s *server) detect(
	ctx context.Context, g dna.Grid) (_ dna.Classification, err error) {
	if err = dna.Validate(g); err != nil {
		return dna.Human, fromDnaError(err)
	}
	key := dna.Key(g)
	if cl, ok := s.cache.getClassification(ctx, key); ok {
		return cl, nil
	}
	cl, err := dna.Classify(g)
	if err != nil {
		return dna.Human, fromDnaError(err)
	}
	created, err := s.store.Save(ctx, &dbRecord{
		Key:            key,
		Dna:            g,
		Classification: cl.String(),
		UpdatedAt:      s.now(),
	})
	if err != nil {
		log.Warnf("failed to save dna record: %v", err)
		return dna.Human, errDatabase
	}
	if created {
		s.cache.invalidateStats(ctx)
	}
	s.cache.setClassification(ctx, key, cl)
	return cl, nil
}

func (s *server) stats(ctx context.Context) (_ *stats, err error) {
	if v, ok := s.cache.getStats(ctx); ok {
		return v, nil
	}
	mutants, humans, err := s.store.Count(ctx)
	if err != nil {
		log.Warnf("failed to count dna records: %v", err)
		return nil, errDatabase
	}
	v := newStats(mutants, humans)
	s.cache.setStats(ctx, v)
	return v, nil
}

type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type mutantRequest struct {
	Dna dna.Grid `json:"dna"`
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
		&response{Message: st.Message()})
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed,
		&response{Message: "method not allowed"})
	return false
}

func (s *server) handleMutant(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req mutantRequest
	if err := json.NewDecoder(
		http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeError(w, errMalformedBody)
		return
	}
	cl, err := s.detect(r.Context(), req.Dna)
	if err != nil {
		writeError(w, err)
		return
	}
	if cl == dna.Mutant {
		writeJSON(w, http.StatusOK,
			&response{Success: true, Message: cl.String(), Data: &req})
	} else {
		writeJSON(w, http.StatusForbidden,
			&response{Success: false, Message: cl.String(), Data: &req})
	}
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	v, err := s.stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
