package racepub

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/eringen/racepub/github"
)

// storeCall records one request made against memStore.
type storeCall struct {
	Method  string
	Path    string
	SHA     string
	Message string
}

// memStore is an in-memory ContentStore that versions files the way GitHub
// does: every write gets a new sha and updates must name the current one.
type memStore struct {
	mu      sync.Mutex
	files   map[string]github.File
	calls   []storeCall
	failGet map[string]error
	failPut map[string]error
	seq     int
}

func newMemStore() *memStore {
	return &memStore{
		files:   make(map[string]github.File),
		failGet: make(map[string]error),
		failPut: make(map[string]error),
	}
}

// seed stores raw content at p with the given sha.
func (s *memStore) seed(p, sha string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[p] = github.File{
		Type:     "file",
		Name:     path.Base(p),
		Path:     p,
		SHA:      sha,
		Encoding: "base64",
		Content:  base64.StdEncoding.EncodeToString(raw),
	}
}

func (s *memStore) file(p string) (github.File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[p]
	return f, ok
}

func (s *memStore) callLog() []storeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storeCall(nil), s.calls...)
}

func (s *memStore) GetFile(_ context.Context, p, ref string) (*github.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, storeCall{Method: http.MethodGet, Path: p})
	if err := s.failGet[p]; err != nil {
		return nil, err
	}
	f, ok := s.files[p]
	if !ok {
		return nil, github.ErrNotFound
	}
	return &f, nil
}

func (s *memStore) PutFile(_ context.Context, p string, req github.PutRequest) (*github.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, storeCall{Method: http.MethodPut, Path: p, SHA: req.SHA, Message: req.Message})
	if err := s.failPut[p]; err != nil {
		return nil, err
	}
	cur, exists := s.files[p]
	switch {
	case exists && req.SHA != cur.SHA:
		return nil, &github.StatusError{Method: http.MethodPut, Path: p, StatusCode: http.StatusConflict,
			Body: fmt.Sprintf(`{"message":"%s does not match"}`, req.SHA)}
	case !exists && req.SHA != "":
		return nil, &github.StatusError{Method: http.MethodPut, Path: p, StatusCode: http.StatusUnprocessableEntity,
			Body: `{"message":"sha wasn't supplied"}`}
	}
	s.seq++
	f := github.File{
		Type:     "file",
		Name:     path.Base(p),
		Path:     p,
		SHA:      fmt.Sprintf("sha-%d", s.seq),
		Encoding: "base64",
		Content:  req.Content,
	}
	s.files[p] = f
	return &f, nil
}

func (s *memStore) ListDir(_ context.Context, dir, ref string) ([]github.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, storeCall{Method: http.MethodGet, Path: dir})
	prefix := strings.TrimSuffix(dir, "/") + "/"
	var out []github.File
	for p, f := range s.files {
		if strings.HasPrefix(p, prefix) && !strings.Contains(strings.TrimPrefix(p, prefix), "/") {
			f.Content = ""
			f.Encoding = ""
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, github.ErrNotFound
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
