package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/sigil/sigil/pkg/api/middleware"
	"github.com/sigil/sigil/pkg/api/response"
	"github.com/sigil/sigil/pkg/logger"
	"github.com/sigil/sigil/pkg/sigil"
)

// ErrLinkBound is returned when a link name is already taken.
var ErrLinkBound = errors.New("link name already bound")

// ErrLinkNotFound is returned for operations on an unknown link.
var ErrLinkNotFound = errors.New("link not found")

type linkEntry struct {
	link    *sigil.Link
	members []string
}

// LinkSet is a mutable collection of named links. Links themselves are
// anonymous in the core library; the daemon names them so the API can
// address them.
type LinkSet struct {
	mu    sync.RWMutex
	links map[string]*linkEntry
}

// NewLinkSet creates an empty link set.
func NewLinkSet() *LinkSet {
	return &LinkSet{links: make(map[string]*linkEntry)}
}

// Create registers a new empty link under name.
func (s *LinkSet) Create(name string) (*sigil.Link, error) {
	if name == "" {
		return nil, errors.New("link name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.links[name]; ok {
		return nil, ErrLinkBound
	}
	link := sigil.NewLink()
	s.links[name] = &linkEntry{link: link}
	return link, nil
}

// Get returns the link bound to name.
func (s *LinkSet) Get(name string) (*sigil.Link, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.links[name]
	if !ok {
		return nil, false
	}
	return entry.link, true
}

// AddMember adds the signal to the named link and records its member
// name for listing. Duplicate additions create distinct edges.
func (s *LinkSet) AddMember(linkName, sigName string, sig *sigil.Signal) (*sigil.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.links[linkName]
	if !ok {
		return nil, ErrLinkNotFound
	}
	m := entry.link.Add(sig)
	entry.members = append(entry.members, sigName)
	return m, nil
}

// Members returns the member signal names of the named link in
// insertion order.
func (s *LinkSet) Members(name string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.links[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(entry.members))
	copy(out, entry.members)
	return out, true
}

// Names returns the sorted link names.
func (s *LinkSet) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.links))
	for name := range s.links {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LinkInfo describes a named link.
type LinkInfo struct {
	Name    string   `json:"name"`
	Enabled bool     `json:"enabled"`
	Members []string `json:"members"`
}

// CreateLinkRequest is the body for POST /api/v1/links.
type CreateLinkRequest struct {
	Name string `json:"name"`
}

// AddMemberRequest is the body for POST /api/v1/links/{name}/members.
type AddMemberRequest struct {
	Signal string `json:"signal"`
}

// LinksHandler serves the named-link surface. Member signals are
// resolved through the same registry the signals handler uses.
type LinksHandler struct {
	set      *LinkSet
	registry *sigil.Registry
	log      logger.Logger
}

// NewLinksHandler creates a links handler.
func NewLinksHandler(set *LinkSet, reg *sigil.Registry, log logger.Logger) *LinksHandler {
	return &LinksHandler{set: set, registry: reg, log: log}
}

// List handles GET /api/v1/links.
func (h *LinksHandler) List(w http.ResponseWriter, r *http.Request) {
	names := h.set.Names()
	infos := make([]LinkInfo, 0, len(names))
	for _, name := range names {
		link, ok := h.set.Get(name)
		if !ok {
			continue
		}
		members, _ := h.set.Members(name)
		infos = append(infos, LinkInfo{
			Name:    name,
			Enabled: link.Enabled(),
			Members: members,
		})
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"links": infos,
		"count": len(infos),
	})
}

// Create handles POST /api/v1/links.
func (h *LinksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest,
			"invalid request body: "+err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	link, err := h.set.Create(req.Name)
	if err != nil {
		status := http.StatusBadRequest
		code := response.ErrCodeBadRequest
		if errors.Is(err, ErrLinkBound) {
			status = http.StatusConflict
			code = response.ErrCodeConflict
		}
		response.Error(w, status, code, err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	h.log.Info("link created", "name", req.Name)
	response.JSON(w, http.StatusCreated, LinkInfo{
		Name:    req.Name,
		Enabled: link.Enabled(),
		Members: []string{},
	})
}

// AddMember handles POST /api/v1/links/{name}/members.
func (h *LinksHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest,
			"invalid request body: "+err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	sig, ok := h.registry.Get(req.Signal)
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound,
			"signal not found: "+req.Signal, middleware.GetRequestID(r.Context()))
		return
	}

	if _, err := h.set.AddMember(name, req.Signal, sig); err != nil {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound,
			err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	members, _ := h.set.Members(name)
	link, _ := h.set.Get(name)
	response.JSON(w, http.StatusOK, LinkInfo{
		Name:    name,
		Enabled: link.Enabled(),
		Members: members,
	})
}

// Fire handles POST /api/v1/links/{name}/fire.
func (h *LinksHandler) Fire(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	link, ok := h.set.Get(name)
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound,
			"link not found: "+name, middleware.GetRequestID(r.Context()))
		return
	}

	var req FireRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest,
				"invalid request body: "+err.Error(), middleware.GetRequestID(r.Context()))
			return
		}
	}

	link.Fire(req.Args...)

	h.log.DebugContext(r.Context(), "link fired", "name", name, "members", link.Len())
	response.JSON(w, http.StatusAccepted, map[string]any{
		"status":  "fired",
		"link":    name,
		"members": link.Len(),
	})
}

// Enable handles POST /api/v1/links/{name}/enable.
func (h *LinksHandler) Enable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	link, ok := h.set.Get(name)
	if !ok {
		response.Error(w, http.StatusNotFound, response.ErrCodeNotFound,
			"link not found: "+name, middleware.GetRequestID(r.Context()))
		return
	}

	var req EnableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest,
			"invalid request body: "+err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	link.SetEnabled(req.Enabled)
	members, _ := h.set.Members(name)
	response.JSON(w, http.StatusOK, LinkInfo{
		Name:    name,
		Enabled: link.Enabled(),
		Members: members,
	})
}
