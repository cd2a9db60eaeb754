package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/radioepoka/showcaster/internal/api"
	"github.com/radioepoka/showcaster/internal/bus"
	"github.com/radioepoka/showcaster/internal/calstore"
	"github.com/radioepoka/showcaster/internal/config"
	"github.com/radioepoka/showcaster/internal/coordinator"
	"github.com/radioepoka/showcaster/internal/model"
	"github.com/radioepoka/showcaster/internal/relstore/sqlite"
	"github.com/radioepoka/showcaster/internal/router"
	"github.com/radioepoka/showcaster/pkg/ical"
)

const reportTimeLayout = "20060102T150405Z"

// caldavServer is an in-process CalDAV endpoint backing the integration
// stack: raw iCalendar objects keyed by path, Basic auth, and just enough
// REPORT evaluation for the queries the service issues.
type caldavServer struct {
	mu       sync.Mutex
	objects  map[string]string
	username string
	password string
}

func newCalDAVServer(username, password string) *caldavServer {
	return &caldavServer{
		objects:  map[string]string{},
		username: username,
		password: password,
	}
}

func (s *caldavServer) object(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[path]
	return body, ok
}

func (s *caldavServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != s.username || pass != s.password {
		w.Header().Set("WWW-Authenticate", `Basic realm="caldav"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.objects[r.URL.Path] = string(body)
		s.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		body, ok := s.object(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		_, _ = w.Write([]byte(body))
	case http.MethodDelete:
		s.mu.Lock()
		_, ok := s.objects[r.URL.Path]
		delete(s.objects, r.URL.Path)
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "REPORT":
		s.handleReport(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *caldavServer) handleReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var timeRange, propFilter *etree.Element
	for _, el := range doc.FindElements("//*") {
		switch el.Tag {
		case "time-range":
			timeRange = el
		case "prop-filter":
			propFilter = el
		}
	}

	s.mu.Lock()
	paths := make([]string, 0, len(s.objects))
	bodies := make([]string, 0, len(s.objects))
	for path, obj := range s.objects {
		paths = append(paths, path)
		bodies = append(bodies, obj)
	}
	s.mu.Unlock()

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<D:multistatus xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">` + "\n")
	for i, obj := range bodies {
		match, err := matchesFilter(obj, timeRange, propFilter)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !match {
			continue
		}
		fmt.Fprintf(&buf, "<D:response><D:href>%s</D:href><D:propstat><D:prop><C:calendar-data>%s</C:calendar-data></D:prop><D:status>HTTP/1.1 200 OK</D:status></D:propstat></D:response>\n",
			paths[i], icsEscape(obj))
	}
	buf.WriteString("</D:multistatus>\n")

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusMultiStatus)
	_, _ = buf.WriteTo(w)
}

func matchesFilter(obj string, timeRange, propFilter *etree.Element) (bool, error) {
	events, err := ical.DecodeAll([]byte(obj))
	if err != nil {
		return false, err
	}
	for _, ev := range events {
		if timeRange != nil {
			start := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)
			if raw := timeRange.SelectAttrValue("start", ""); raw != "" {
				if start, err = time.Parse(reportTimeLayout, raw); err != nil {
					return false, err
				}
			}
			if raw := timeRange.SelectAttrValue("end", ""); raw != "" {
				if end, err = time.Parse(reportTimeLayout, raw); err != nil {
					return false, err
				}
			}
			instances, err := ical.Expand(ev, start, end)
			if err != nil {
				return false, err
			}
			if len(instances) > 0 {
				return true, nil
			}
			continue
		}
		if propFilter != nil {
			recurring := ev.Recurrence != nil && ev.Recurrence.Rule != nil
			wantAbsent := propFilter.FindElement("is-not-defined") != nil
			if recurring != wantAbsent {
				return true, nil
			}
			continue
		}
		return true, nil
	}
	return false, nil
}

// icsEscape keeps iCalendar CRLF line endings intact through XML transport
// by encoding CR as a character reference.
func icsEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return strings.ReplaceAll(s, "\r", "&#13;")
}

// stack is the whole service wired together: sqlite relstore, the real
// CalDAV client against caldavServer, bus, coordinators and HTTP API.
type stack struct {
	api *httptest.Server
	dav *caldavServer
	bus *bus.Broker
}

func newStack(t *testing.T) *stack {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "showcaster.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	dav := newCalDAVServer("radio", "secret")
	davSrv := httptest.NewServer(dav)
	t.Cleanup(davSrv.Close)

	cal, err := calstore.New(calstore.Config{
		BaseURL:  davSrv.URL,
		Username: "radio",
		Password: "secret",
	}, zerolog.Nop())
	require.NoError(t, err)

	broker := bus.NewBroker(bus.DefaultBuffer, zerolog.Nop())
	cachedCal := coordinator.NewCachedCalendar(cal, time.Minute)
	events := coordinator.NewEvents(store, cachedCal, broker, zerolog.Nop())
	shows := coordinator.NewShows(store, cachedCal, broker, zerolog.Nop())
	handlers := api.NewHandlers(events, shows, broker, zerolog.Nop())

	apiSrv := httptest.NewServer(router.New(&config.Config{}, handlers, zerolog.Nop()))
	t.Cleanup(apiSrv.Close)

	return &stack{api: apiSrv, dav: dav, bus: broker}
}

func (s *stack) request(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, s.api.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp, decoded
}

func collectChanges(ch <-chan model.ChangeEvent, n int) []model.ChangeEvent {
	out := make([]model.ChangeEvent, 0, n)
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case ev := <-ch:
			out = append(out, ev)
		case <-timeout:
			return out
		}
	}
	return out
}
