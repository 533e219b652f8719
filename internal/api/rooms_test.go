package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravitrone/repack/cli/internal/records"
)

func TestListRoomsAndRecords(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/rooms/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "rooms": []map[string]any{
			{"id": 4, "name": "Lecture hall"},
		}})
	}).Methods(http.MethodGet)
	router.HandleFunc("/api/records/room/{id:[0-9]+}/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4", mux.Vars(r)["id"])
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "recordings": []map[string]any{
			{"record_id": 17, "status": "5", "datetime_created": "2024-05-01 10:00:00+03:00", "url": "/media/17.mp4"},
		}})
	}).Methods(http.MethodGet)
	_, client := testServer(t, router)

	rooms, err := client.ListRooms(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []records.Room{{ID: 4, Name: "Lecture hall"}}, rooms)

	list, err := client.ListRecords(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, records.ID("17"), list[0].ID)
	assert.Equal(t, records.StatusUploaded, list[0].Status)
	assert.Equal(t, 10, list[0].Created.Hour())
	assert.Equal(t, "/media/17.mp4", list[0].URL)
}

func TestListRecordsRefused(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/records/room/{id:[0-9]+}/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
	})
	_, client := testServer(t, router)

	_, err := client.ListRecords(context.Background(), 9)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "room 9")
}

func TestListRoomsLoginRedirect(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/rooms/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login/?next=/api/rooms/", http.StatusFound)
	})
	router.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>login</html>"))
	})
	_, client := testServer(t, router)

	_, err := client.ListRooms(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
