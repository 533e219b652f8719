package api

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/gravitrone/repack/cli/internal/records"
)

type roomsResponse struct {
	Success bool           `json:"success"`
	Rooms   []records.Room `json:"rooms"`
}

type recordsResponse struct {
	Success    bool             `json:"success"`
	Recordings []records.Record `json:"recordings"`
}

// ListRooms returns the rooms visible to the logged-in user.
func (c *Client) ListRooms(ctx context.Context) ([]records.Room, error) {
	var resp roomsResponse
	if err := c.getJSON(ctx, "/api/rooms/", &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.New("service refused to list rooms")
	}
	return resp.Rooms, nil
}

// ListRecords returns the recordings of one room.
func (c *Client) ListRecords(ctx context.Context, roomID int) ([]records.Record, error) {
	var resp recordsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/api/records/room/%d/", roomID), &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, errors.Errorf("service refused to list records of room %d", roomID)
	}
	return resp.Recordings, nil
}
