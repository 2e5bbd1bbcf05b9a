package indexing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/google/go-cmp/cmp"
)

type fixture struct {
	mr  *miniredis.Miniredis
	cli *goredis.Client
	srv *server
	mux *http.ServeMux
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{mr: miniredis.RunT(t), mux: http.NewServeMux()}
	f.cli = goredis.NewClient(&goredis.Options{Addr: f.mr.Addr()})
	t.Cleanup(func() { f.cli.Close() })
	f.srv = newServer(f.cli, 16)
	if err := f.srv.RegisterHttp(f.mux); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec.Code, rec.Body.String()
}

func (f *fixture) put(t *testing.T, id, key, value string) {
	t.Helper()
	b, _ := json.Marshal(&entry{Key: key, Value: value})
	if code, body := f.do(t, http.MethodPut, "/index/"+id, string(b)); code != http.StatusOK {
		t.Fatalf("put %s/%s: %d %s", id, key, code, body)
	}
}

func (f *fixture) search(t *testing.T, id, query string) *searchResult {
	t.Helper()
	code, body := f.do(t, http.MethodGet, "/index/"+id+"/search?"+query, "")
	if code != http.StatusOK {
		t.Fatalf("search %s?%s: %d %s", id, query, code, body)
	}
	var r searchResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatal(err)
	}
	return &r
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.put(t, "people", "3", "banana")
	f.put(t, "people", "1", "bandana")
	f.put(t, "people", "2", "cabana")
	f.put(t, "other", "1", "banana")

	for _, c := range []struct {
		query string
		want  *searchResult
	}{
		{
			"value=ana",
			&searchResult{
				Entries: []*entry{{"1", "bandana"}, {"2", "cabana"}, {"3", "banana"}},
				Total:   3,
			},
		},
		{
			"value=ban&limit=1",
			&searchResult{Entries: []*entry{{"1", "bandana"}}, Total: 3},
		},
		{
			"value=nan",
			&searchResult{Entries: []*entry{{"3", "banana"}}, Total: 1},
		},
		{
			"value=xyz",
			&searchResult{Entries: []*entry{}, Total: 0},
		},
		{
			"value=ana&limit=0",
			&searchResult{Entries: []*entry{}, Total: 3},
		},
	} {
		if diff := cmp.Diff(c.want, f.search(t, "people", c.query)); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", c.query, diff)
		}
	}
}

func TestUpdateAndRemove(t *testing.T) {
	f := newFixture(t)
	f.put(t, "people", "a", "alpha")
	f.put(t, "people", "b", "beta")

	if r := f.search(t, "people", "value=ph"); r.Total != 1 {
		t.Fatalf("expected one match, got %+v", r)
	}
	// replacing a value drops the old one from the index
	f.put(t, "people", "a", "gamma")
	if r := f.search(t, "people", "value=ph"); r.Total != 0 {
		t.Fatalf("stale value still indexed: %+v", r)
	}
	if r := f.search(t, "people", "value=mm"); r.Total != 1 || r.Entries[0].Key != "a" {
		t.Fatalf("new value not indexed: %+v", r)
	}

	code, body := f.do(t, http.MethodDelete, "/index/people?key=a&key=zzz", "")
	if code != http.StatusOK || strings.TrimSpace(body) != `{"removed":1}` {
		t.Fatalf("remove: %d %s", code, body)
	}
	if r := f.search(t, "people", "value=a"); r.Total != 1 || r.Entries[0].Key != "b" {
		t.Fatalf("after remove: %+v", r)
	}
	if got, err := f.mr.HKeys("substrindex:{people}"); err != nil || !cmp.Equal(got, []string{"b"}) {
		t.Fatalf("unexpected stored keys %v, %v", got, err)
	}
}

func TestLoadFromRedis(t *testing.T) {
	f := newFixture(t)
	f.put(t, "people", "x", "mutant")
	f.put(t, "people", "y", "human")

	// a fresh server sees what the first one stored
	other := newServer(f.cli, 16)
	mux := http.NewServeMux()
	other.RegisterHttp(mux)
	req := httptest.NewRequest(http.MethodGet, "/index/people/search?value=u", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	var r searchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatal(err)
	}
	want := &searchResult{Entries: []*entry{{"x", "mutant"}, {"y", "human"}}, Total: 2}
	if diff := cmp.Diff(want, &r); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)
	for _, c := range []struct {
		method, path, body string
		code               int
	}{
		{http.MethodPut, "/index/people", `{"key":`, 400},
		{http.MethodPut, "/index/people", `{"value":"v"}`, 400},
		{http.MethodPut, "/index/people", `{"key":"k","value":"01234567890123456"}`, 400},
		{http.MethodDelete, "/index/people", ``, 400},
		{http.MethodGet, "/index/people/search?limit=-2", ``, 400},
		{http.MethodGet, "/index/people/search?limit=x", ``, 400},
		{http.MethodGet, "/index/people", ``, 405},
		{http.MethodPost, "/index/people/search", ``, 405},
		{http.MethodGet, "/index/people/other", ``, 404},
		{http.MethodGet, "/index/", ``, 404},
	} {
		if code, body := f.do(t, c.method, c.path, c.body); code != c.code {
			t.Errorf("%s %s: expected %d, got %d %s", c.method, c.path, c.code, code, body)
		}
	}
}

func TestRedisUnavailable(t *testing.T) {
	f := newFixture(t)
	f.put(t, "people", "a", "alpha")
	f.mr.Close()
	// loaded index keeps serving
	if r := f.search(t, "people", "value=lp"); r.Total != 1 {
		t.Fatalf("unexpected result %+v", r)
	}
	b, _ := json.Marshal(&entry{Key: "b", Value: "beta"})
	if code, _ := f.do(t, http.MethodPut, "/index/people", string(b)); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if code, _ := f.do(t, http.MethodGet, "/index/fresh/search?value=a", ""); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
}

func TestConcurrentSearch(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 50; i++ {
		f.put(t, "people", fmt.Sprintf("k%02d", i), fmt.Sprintf("v%dx%d", i, i*7))
	}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				req := httptest.NewRequest(http.MethodGet,
					fmt.Sprintf("/index/people/search?value=x%d", j), nil)
				rec := httptest.NewRecorder()
				f.mux.ServeHTTP(rec, req)
				if rec.Code != http.StatusOK {
					t.Errorf("search: %d", rec.Code)
				}
			}
			if i%2 == 0 {
				b, _ := json.Marshal(&entry{Key: fmt.Sprintf("n%d", i), Value: "new"})
				req := httptest.NewRequest(http.MethodPut, "/index/people", strings.NewReader(string(b)))
				f.mux.ServeHTTP(httptest.NewRecorder(), req)
			}
		}(i)
	}
	wg.Wait()
	if r := f.search(t, "people", "value=new"); r.Total != 4 {
		t.Fatalf("expected 4 new entries, got %+v", r)
	}
}
