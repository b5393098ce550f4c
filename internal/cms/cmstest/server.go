// Package cmstest поднимает in-memory имитацию REST API Strapi для тестов:
// коллекции, single types, фильтры $eq/$containsi/$or, сортировку, пагинацию,
// populate связи event у регистраций и управляемые сбои.
package cmstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultPageSize = 25
	// maxLimit как api.rest.maxLimit у Strapi по умолчанию
	maxLimit = 100
)

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

type Server struct {
	*httptest.Server

	mu          sync.Mutex
	collections map[string][]map[string]any
	singles     map[string]map[string]any
	nextID      map[string]int64
	failAll     int
	failures    map[string]int
	requests    []Request
	legacy      bool
}

func New() *Server {
	s := &Server{
		collections: make(map[string][]map[string]any),
		singles:     make(map[string]map[string]any),
		nextID:      make(map[string]int64),
		failures:    make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Seed добавляет записи в коллекцию. Записи без id получают следующий свободный.
func (s *Server) Seed(collection string, items ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection]; !ok {
		s.collections[collection] = []map[string]any{}
	}

	for _, it := range items {
		m := toMap(it)
		if id, ok := asInt(m["id"]); ok && id > 0 {
			if id >= s.nextID[collection] {
				s.nextID[collection] = id
			}
		} else {
			s.nextID[collection]++
			m["id"] = float64(s.nextID[collection])
		}
		s.collections[collection] = append(s.collections[collection], m)
	}
}

// SetSingle задаёт single type; nil - запись не создана (404).
func (s *Server) SetSingle(name string, item any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item == nil {
		s.singles[name] = nil
		return
	}
	s.singles[name] = toMap(item)
}

// SetLegacy отдавать записи в форме Strapi v4: {"id": 1, "attributes": {...}}
func (s *Server) SetLegacy(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legacy = on
}

// Fail заставляет все запросы отвечать status; 0 снимает сбой.
func (s *Server) Fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = status
}

// FailOn сбой только для запросов method к коллекции; 0 снимает сбой.
func (s *Server) FailOn(method, collection string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := method + " " + collection
	if status == 0 {
		delete(s.failures, key)
		return
	}
	s.failures[key] = status
}

// Items копия содержимого коллекции.
func (s *Server) Items(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, 0, len(s.collections[collection]))
	for _, it := range s.collections[collection] {
		out = append(out, clone(it))
	}
	return out
}

// Item запись по id или nil.
func (s *Server) Item(collection string, id int64) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if it := s.find(collection, strconv.FormatInt(id, 10)); it != nil {
		return clone(it)
	}
	return nil
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Request(nil), s.requests...)
}

// LastRequest последний запрос к коллекции (любым методом).
func (s *Server) LastRequest(collection string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(s.requests) - 1; i >= 0; i-- {
		r := s.requests[i]
		if r.Path == collection || strings.HasPrefix(r.Path, collection+"/") {
			return r, true
		}
	}
	return Request{}, false
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "NotFoundError", "Not Found")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/"), "/")
	parts := strings.Split(path, "/")
	collection := parts[0]

	var body map[string]any
	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	s.requests = append(s.requests, Request{Method: r.Method, Path: path, Query: r.URL.Query(), Body: body})

	if s.failAll != 0 {
		writeError(w, s.failAll, "InternalServerError", http.StatusText(s.failAll))
		return
	}
	if status, ok := s.failures[r.Method+" "+collection]; ok {
		writeError(w, status, "InternalServerError", http.StatusText(status))
		return
	}

	if single, ok := s.singles[collection]; ok {
		if single == nil || r.Method != http.MethodGet {
			writeError(w, http.StatusNotFound, "NotFoundError", "Not Found")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"data": s.shape(single), "meta": map[string]any{}})
		return
	}

	items, ok := s.collections[collection]
	if !ok {
		writeError(w, http.StatusNotFound, "NotFoundError", "Not Found")
		return
	}

	switch {
	case r.Method == http.MethodGet && len(parts) == 1:
		s.list(w, r.URL.Query(), collection, items)
	case r.Method == http.MethodGet && len(parts) == 2:
		it := s.find(collection, parts[1])
		if it == nil {
			writeError(w, http.StatusNotFound, "NotFoundError", "Not Found")
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"data": s.shape(it), "meta": map[string]any{}})
	case r.Method == http.MethodPost && len(parts) == 1:
		s.create(w, collection, body)
	case r.Method == http.MethodPut && len(parts) == 2:
		s.update(w, collection, parts[1], body)
	default:
		writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowedError", "Method Not Allowed")
	}
}

func (s *Server) list(w http.ResponseWriter, q url.Values, collection string, items []map[string]any) {
	var and []condition
	or := map[string][]condition{}

	for key, vals := range q {
		segs := brackets(key)
		if len(segs) < 3 || segs[0] != "filters" || len(vals) == 0 {
			continue
		}
		if segs[1] == "$or" && len(segs) >= 5 {
			or[segs[2]] = append(or[segs[2]], condition{path: segs[3 : len(segs)-1], op: segs[len(segs)-1], value: vals[0]})
			continue
		}
		and = append(and, condition{path: segs[1 : len(segs)-1], op: segs[len(segs)-1], value: vals[0]})
	}

	matched := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if matchAll(it, and) && matchAny(it, or) {
			matched = append(matched, it)
		}
	}

	sortItems(matched, sortKeys(q))

	page := atoiDefault(q.Get("pagination[page]"), 1)
	pageSize := atoiDefault(q.Get("pagination[pageSize]"), defaultPageSize)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxLimit)

	total := len(matched)
	from := min((page-1)*pageSize, total)
	to := min(from+pageSize, total)

	fields := fieldList(q)
	populateEvent := populates(q, "event")

	data := make([]any, 0, to-from)
	for _, it := range matched[from:to] {
		out := clone(it)
		if populateEvent {
			s.embedEvent(out)
		}
		if len(fields) > 0 {
			out = project(out, fields)
		}
		data = append(data, s.shape(out))
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"meta": map[string]any{
			"pagination": map[string]any{
				"page":      page,
				"pageSize":  pageSize,
				"pageCount": (total + pageSize - 1) / pageSize,
				"total":     total,
			},
		},
	})
}

func (s *Server) create(w http.ResponseWriter, collection string, body map[string]any) {
	data, ok := body["data"].(map[string]any)
	if !ok {
		writeError(w, http.StatusBadRequest, "ValidationError", "Missing \"data\" payload in the request body")
		return
	}

	if collection == "event-registrations" {
		if _, ok := asInt(data["event"]); !ok {
			writeError(w, http.StatusBadRequest, "ValidationError", "event is a required field")
			return
		}
	}

	s.nextID[collection]++
	id := s.nextID[collection]

	now := time.Now().UTC().Format(time.RFC3339Nano)
	item := clone(data)
	item["id"] = float64(id)
	item["documentId"] = fmt.Sprintf("doc-%s-%d", collection, id)
	item["createdAt"] = now
	item["updatedAt"] = now
	item["publishedAt"] = now

	s.collections[collection] = append(s.collections[collection], item)

	s.writeJSON(w, http.StatusCreated, map[string]any{"data": s.shape(clone(item)), "meta": map[string]any{}})
}

func (s *Server) update(w http.ResponseWriter, collection, ref string, body map[string]any) {
	data, ok := body["data"].(map[string]any)
	if !ok {
		writeError(w, http.StatusBadRequest, "ValidationError", "Missing \"data\" payload in the request body")
		return
	}

	it := s.find(collection, ref)
	if it == nil {
		writeError(w, http.StatusNotFound, "NotFoundError", "Not Found")
		return
	}

	for k, v := range data {
		if k == "id" || k == "documentId" {
			continue
		}
		it[k] = v
	}
	it["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)

	s.writeJSON(w, http.StatusOK, map[string]any{"data": s.shape(clone(it)), "meta": map[string]any{}})
}

// find по числовому id или documentId; вызывается под s.mu.
func (s *Server) find(collection, ref string) map[string]any {
	for _, it := range s.collections[collection] {
		if fmt.Sprint(it["documentId"]) == ref {
			return it
		}
		if id, ok := asInt(it["id"]); ok && strconv.FormatInt(id, 10) == ref {
			return it
		}
	}
	return nil
}

func (s *Server) embedEvent(item map[string]any) {
	id, ok := asInt(item["event"])
	if !ok {
		return
	}
	if ev := s.find("events", strconv.FormatInt(id, 10)); ev != nil {
		item["event"] = clone(ev)
	}
}

// shape приводит запись к форме v4, если включён legacy.
func (s *Server) shape(item map[string]any) any {
	if !s.legacy {
		return item
	}
	attrs := clone(item)
	id := attrs["id"]
	delete(attrs, "id")
	return map[string]any{"id": id, "attributes": attrs}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, name, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"status":  status,
			"name":    name,
			"message": message,
			"details": map[string]any{},
		},
	})
}

type condition struct {
	path  []string
	op    string
	value string
}

func (c condition) match(item map[string]any) bool {
	v, ok := lookup(item, c.path)
	if !ok {
		return false
	}
	s := fmt.Sprint(v)

	switch c.op {
	case "$eq":
		return s == c.value
	case "$ne":
		return s != c.value
	case "$containsi":
		return strings.Contains(strings.ToLower(s), strings.ToLower(c.value))
	case "$contains":
		return strings.Contains(s, c.value)
	}
	return false
}

func matchAll(item map[string]any, conds []condition) bool {
	for _, c := range conds {
		if !c.match(item) {
			return false
		}
	}
	return true
}

// matchAny группы $or: каждая группа - набор условий через AND, группы через OR.
func matchAny(item map[string]any, groups map[string][]condition) bool {
	if len(groups) == 0 {
		return true
	}
	for _, g := range groups {
		if matchAll(item, g) {
			return true
		}
	}
	return false
}

// lookup значение по пути; связь, хранящаяся как число, считается её id.
func lookup(item map[string]any, path []string) (any, bool) {
	var cur any = item
	for i, p := range path {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[p]
			if !ok {
				return nil, false
			}
			cur = v
		case float64, int64, int:
			if p == "id" && i == len(path)-1 {
				return node, true
			}
			return nil, false
		default:
			return nil, false
		}
	}
	if m, ok := cur.(map[string]any); ok {
		if id, ok := m["id"]; ok {
			return id, true
		}
	}
	return cur, cur != nil
}

func brackets(key string) []string {
	head, rest, found := strings.Cut(key, "[")
	out := []string{head}
	if !found {
		return out
	}
	for _, seg := range strings.Split(strings.TrimSuffix(rest, "]"), "][") {
		out = append(out, seg)
	}
	return out
}

type sortKey struct {
	field string
	desc  bool
}

func sortKeys(q url.Values) []sortKey {
	var raw []string
	if v := q.Get("sort"); v != "" {
		raw = append(raw, strings.Split(v, ",")...)
	}
	for i := 0; ; i++ {
		v := q.Get("sort[" + strconv.Itoa(i) + "]")
		if v == "" {
			break
		}
		raw = append(raw, v)
	}

	keys := make([]sortKey, 0, len(raw))
	for _, r := range raw {
		field, dir, _ := strings.Cut(r, ":")
		keys = append(keys, sortKey{field: field, desc: strings.EqualFold(dir, "desc")})
	}
	return keys
}

func sortItems(items []map[string]any, keys []sortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, k := range keys {
			c := compare(items[i][k.field], items[j][k.field])
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compare(a, b any) int {
	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func fieldList(q url.Values) []string {
	var fields []string
	for i := 0; ; i++ {
		v := q.Get("fields[" + strconv.Itoa(i) + "]")
		if v == "" {
			break
		}
		fields = append(fields, v)
	}
	return fields
}

func populates(q url.Values, relation string) bool {
	if q.Get("populate") == relation || q.Get("populate") == "*" {
		return true
	}
	for i := 0; ; i++ {
		v := q.Get("populate[" + strconv.Itoa(i) + "]")
		if v == "" {
			return false
		}
		if v == relation {
			return true
		}
	}
}

func project(item map[string]any, fields []string) map[string]any {
	out := map[string]any{"id": item["id"]}
	if doc, ok := item["documentId"]; ok {
		out["documentId"] = doc
	}
	for _, f := range fields {
		if v, ok := item[f]; ok {
			out[f] = v
		}
	}
	return out
}

// toMap нормализует произвольное значение через JSON, чтобы числа были float64, как после декодирования запроса.
func toMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		panic(err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return m
}

func clone(m map[string]any) map[string]any {
	return toMap(m)
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil
	}
	return 0, false
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
