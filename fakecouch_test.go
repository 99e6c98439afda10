package couchauth

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

// fakeCouch is an in-memory CouchDB server modeling the endpoints used by
// this package. It hashes user passwords the way the server does, so
// fetched user documents never contain "password".
type fakeCouch struct {
	t *testing.T
	*httptest.Server

	// root is the path the server is mounted under, e.g. "/couch".
	root string
	// nodes is nil for a pre-cluster server.
	nodes []string
	// failPut, if set, makes a user document write fail with a 500.
	failPut func(doc map[string]interface{}) bool

	mu       sync.Mutex
	admins   map[string]string // config path + name -> password
	users    map[string]map[string]interface{}
	deleted  map[string]string // doc ID -> deleted revision
	sessions map[string]string // cookie value -> name
	seq      int
	requests []fakeRequest
}

type fakeRequest struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

func newFakeCouch(t *testing.T, root string, nodes ...string) *fakeCouch {
	f := &fakeCouch{
		t:        t,
		root:     root,
		nodes:    nodes,
		admins:   map[string]string{},
		users:    map[string]map[string]interface{}{},
		deleted:  map[string]string{},
		sessions: map[string]string{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// dbURL returns the URL of a database on the server.
func (f *fakeCouch) dbURL(name string) string {
	return f.URL + f.root + "/" + name
}

// writes returns the number of requests that could change server state.
func (f *fakeCouch) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, r := range f.requests {
		if r.Method != http.MethodGet && !(r.Method == http.MethodPost && strings.HasSuffix(r.Path, "/_session")) {
			n++
		}
	}
	return n
}

func (f *fakeCouch) requestLog() []fakeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeRequest(nil), f.requests...)
}

// addUser stores a user directly, as if created earlier.
func (f *fakeCouch) addUser(name, password string, roles ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if roles == nil {
		roles = []string{}
	}
	doc := map[string]interface{}{
		"_id":      UserPrefix + name,
		"name":     name,
		"type":     "user",
		"roles":    toInterfaces(roles),
		"password": password,
	}
	f.storeUser(doc)
}

func toInterfaces(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func (f *fakeCouch) nextRev(prev string) string {
	f.seq++
	var gen int
	if prev != "" {
		_, _ = fmt.Sscanf(prev, "%d-", &gen)
	}
	return fmt.Sprintf("%d-%032x", gen+1, f.seq)
}

// storeUser hashes the password, if present, assigns a new revision and
// stores doc. f.mu must be held.
func (f *fakeCouch) storeUser(doc map[string]interface{}) string {
	id := doc["_id"].(string)
	prevRev := f.deleted[id]
	if current, ok := f.users[id]; ok {
		prevRev, _ = current["_rev"].(string)
	}
	if password, ok := doc["password"].(string); ok {
		delete(doc, "password")
		salt := fmt.Sprintf("%032x", f.seq+1)
		doc["password_scheme"] = "pbkdf2"
		doc["iterations"] = 10
		doc["salt"] = salt
		doc["derived_key"] = hashPassword(salt, password)
	}
	rev := f.nextRev(prevRev)
	doc["_rev"] = rev
	delete(doc, "_deleted")
	f.users[id] = doc
	delete(f.deleted, id)
	return rev
}

func hashPassword(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}

func (f *fakeCouch) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := ioutil.ReadAll(r.Body)
	escaped := r.URL.EscapedPath()
	f.mu.Lock()
	f.requests = append(f.requests, fakeRequest{
		Method: r.Method,
		Path:   escaped,
		Auth:   r.Header.Get("Authorization"),
		Body:   string(body),
	})
	f.mu.Unlock()
	if !strings.HasPrefix(escaped, f.root+"/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "reason": "Database does not exist."})
		return
	}
	parts := strings.Split(strings.TrimPrefix(escaped, f.root+"/"), "/")
	for i, part := range parts {
		parts[i], _ = url.PathUnescape(part)
	}
	switch {
	case len(parts) == 1 && parts[0] == "_session":
		f.serveSession(w, r, body)
	case len(parts) == 1 && parts[0] == "_membership":
		if f.nodes == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error":  "illegal_database_name",
				"reason": "Name: '_membership'. Only lowercase characters (a-z), digits (0-9), and any of the characters _, $, (, ), +, -, and / are allowed. Must begin with a letter.",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"all_nodes": f.nodes, "cluster_nodes": f.nodes})
	case len(parts) == 3 && parts[0] == "_config" && parts[1] == "admins" && f.nodes == nil:
		f.serveAdmin(w, r, "_config", parts[2], body)
	case len(parts) == 5 && parts[0] == "_node" && parts[2] == "_config" && parts[3] == "admins" && f.isNode(parts[1]):
		f.serveAdmin(w, r, "_node/"+parts[1], parts[4], body)
	case len(parts) == 2 && parts[0] == "_users":
		f.serveUser(w, r, parts[1], body)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "reason": "missing"})
	}
}

func (f *fakeCouch) isNode(node string) bool {
	for _, n := range f.nodes {
		if n == node {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// checkPassword reports whether name/password are valid user or admin
// credentials, and the roles they carry. f.mu must be held.
func (f *fakeCouch) checkPassword(name, password string) ([]interface{}, bool) {
	for key, pw := range f.admins {
		if strings.HasSuffix(key, "/"+name) && pw == password {
			return []interface{}{"_admin"}, true
		}
	}
	doc, ok := f.users[UserPrefix+name]
	if !ok {
		return nil, false
	}
	salt, _ := doc["salt"].(string)
	if doc["derived_key"] != hashPassword(salt, password) {
		return nil, false
	}
	roles, _ := doc["roles"].([]interface{})
	return roles, true
}

// currentUser returns the user authenticated by Basic Auth or session
// cookie. f.mu must be held.
func (f *fakeCouch) currentUser(r *http.Request) (string, []interface{}) {
	if user, pass, ok := r.BasicAuth(); ok {
		if roles, ok := f.checkPassword(user, pass); ok {
			return user, roles
		}
	}
	if c, err := r.Cookie("AuthSession"); err == nil {
		if name, ok := f.sessions[c.Value]; ok {
			roles, _ := f.users[UserPrefix+name]["roles"].([]interface{})
			return name, roles
		}
	}
	return "", []interface{}{}
}

func (f *fakeCouch) serveSession(w http.ResponseWriter, r *http.Request, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPost:
		var creds struct {
			Name     string `json:"name"`
			Password string `json:"password"`
		}
		_ = json.Unmarshal(body, &creds)
		roles, ok := f.checkPassword(creds.Name, creds.Password)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "reason": "Name or password is incorrect."})
			return
		}
		token := base64.RawURLEncoding.EncodeToString([]byte(creds.Name))
		f.sessions[token] = creds.Name
		http.SetCookie(w, &http.Cookie{Name: "AuthSession", Value: token, Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "name": creds.Name, "roles": roles})
	case http.MethodGet:
		name, roles := f.currentUser(r)
		var userName interface{}
		if name != "" {
			userName = name
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"userCtx": map[string]interface{}{"name": userName, "roles": roles},
			"info": map[string]interface{}{
				"authentication_db":       "_users",
				"authentication_handlers": []string{"cookie", "default"},
				"authenticated":           "cookie",
			},
		})
	case http.MethodDelete:
		if c, err := r.Cookie("AuthSession"); err == nil {
			delete(f.sessions, c.Value)
		}
		http.SetCookie(w, &http.Cookie{Name: "AuthSession", Value: "", Path: "/", MaxAge: -1})
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed", "reason": "Only DELETE,GET,HEAD,POST allowed"})
	}
}

func (f *fakeCouch) serveAdmin(w http.ResponseWriter, r *http.Request, config, name string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := config + "/" + name
	previous, exists := f.admins[key]
	switch r.Method {
	case http.MethodPut:
		var password string
		if err := json.Unmarshal(body, &password); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "reason": "invalid UTF-8 JSON"})
			return
		}
		f.admins[key] = password
		if exists {
			writeJSON(w, http.StatusOK, "-pbkdf2-"+hashPassword("", previous))
			return
		}
		writeJSON(w, http.StatusOK, "")
	case http.MethodDelete:
		if !exists {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "reason": "unknown_config_value"})
			return
		}
		delete(f.admins, key)
		writeJSON(w, http.StatusOK, "-pbkdf2-"+hashPassword("", previous))
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed", "reason": "Only GET,PUT,DELETE allowed"})
	}
}

func (f *fakeCouch) serveUser(w http.ResponseWriter, r *http.Request, id string, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, exists := f.users[id]
	var currentRev string
	if exists {
		currentRev, _ = current["_rev"].(string)
	}
	switch r.Method {
	case http.MethodGet:
		if !exists {
			reason := "missing"
			if _, ok := f.deleted[id]; ok {
				reason = "deleted"
			}
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "reason": reason})
			return
		}
		writeJSON(w, http.StatusOK, current)
	case http.MethodPut:
		var doc map[string]interface{}
		if err := json.Unmarshal(body, &doc); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "reason": "invalid UTF-8 JSON"})
			return
		}
		if doc["_id"] != id {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request", "reason": "Document id must match the URL"})
			return
		}
		if rev, _ := doc["_rev"].(string); rev != currentRev {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "conflict", "reason": "Document update conflict."})
			return
		}
		if f.failPut != nil && f.failPut(doc) {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_server_error", "reason": "injected failure"})
			return
		}
		if deleted, _ := doc["_deleted"].(bool); deleted {
			f.deleteUser(id, currentRev)
			writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "id": id, "rev": f.deleted[id]})
			return
		}
		if !strings.HasPrefix(id, UserPrefix) || doc["name"] != strings.TrimPrefix(id, UserPrefix) || doc["type"] != "user" {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden", "reason": "doc.name must match the document id"})
			return
		}
		rev := f.storeUser(doc)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"ok": true, "id": id, "rev": rev})
	case http.MethodDelete:
		if rev := r.URL.Query().Get("rev"); !exists || rev != currentRev {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "conflict", "reason": "Document update conflict."})
			return
		}
		f.deleteUser(id, currentRev)
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "id": id, "rev": f.deleted[id]})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method_not_allowed", "reason": "Only DELETE,GET,HEAD,PUT allowed"})
	}
}

// deleteUser removes a stored user. f.mu must be held.
func (f *fakeCouch) deleteUser(id, currentRev string) {
	delete(f.users, id)
	f.deleted[id] = f.nextRev(currentRev)
}
