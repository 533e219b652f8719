package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/repack/cli/internal/api"
	"github.com/gravitrone/repack/cli/internal/config"
)

var (
	ridA = strings.Repeat("a", 40) + "-1700000000001"
	ridB = strings.Repeat("b", 40) + "-1700000000002"
	ridC = strings.Repeat("c", 40) + "-1700000000003"
)

func testClient(t *testing.T, router *mux.Router) *api.Client {
	t.Helper()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	client, err := api.NewClient(srv.URL, api.WithSession("sess-1", "csrf-1"))
	require.NoError(t, err)
	return client
}

func testConfig(t *testing.T, room int) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return &config.Config{BaseURL: "http://127.0.0.1", Email: "operator@example.com", RoomID: room}
}

// unwritableHome points HOME at a regular file so config.Save fails.
func unwritableHome(t *testing.T) {
	t.Helper()
	home := filepath.Join(t.TempDir(), "home")
	require.NoError(t, os.WriteFile(home, nil, 0o600))
	t.Setenv("HOME", home)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func roomRouter(t *testing.T) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/api/rooms/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "rooms": []map[string]any{
			{"id": 4, "name": "Lecture hall"},
			{"id": 7, "name": "Studio"},
		}})
	})
	router.HandleFunc("/api/records/room/{id:[0-9]+}/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "recordings": []map[string]any{
			{"record_id": ridA, "status": 3, "datetime_created": "2024-05-01 10:00:00", "datetime_stopped": "2024-05-01 11:30:00"},
			{"record_id": ridB, "status": 1},
			{"record_id": ridC, "status": 3},
		}})
	})
	return router
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func typeText(m ProfileModel, text string) ProfileModel {
	for _, r := range text {
		m, _ = m.Update(keyRune(r))
	}
	return m
}

// collect runs cmd and every command batched under it, returning the
// messages they produced. Toast timers must not be passed in.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func findMsg[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, msg := range msgs {
		if typed, ok := msg.(T); ok {
			return typed
		}
	}
	var zero T
	require.Failf(t, "message not produced", "%T not in %v", zero, msgs)
	return zero
}

// loadedRecords returns a records tab showing room 4.
func loadedRecords(t *testing.T, router *mux.Router) RecordsModel {
	t.Helper()
	client := testClient(t, router)
	m := NewRecordsModel(testContext(t), client, testConfig(t, 4), newFeedback(), nil)
	m, _ = m.Update(findMsg[recordsLoadedMsg](t, collect(m.Init())))
	require.Equal(t, 3, m.vm.Len())
	return m
}

// loadedApp returns an app whose records tab shows room 4.
func loadedApp(t *testing.T, router *mux.Router) App {
	t.Helper()
	client := testClient(t, router)
	app := NewApp(testContext(t), client, testConfig(t, 4), nil)
	model, _ := app.Update(findMsg[recordsLoadedMsg](t, collect(app.Init())))
	app = model.(App)
	require.Equal(t, 3, app.records.vm.Len())
	return app
}

func update(t *testing.T, app App, msg tea.Msg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(msg)
	next, ok := model.(App)
	require.True(t, ok)
	return next, cmd
}

// testContext mirrors testing.T.Context (Go 1.24+): a context that is
// cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
