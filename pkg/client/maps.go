package client

import (
	"context"
	"fmt"
	"net/http"
)

// MapRecord mirrors the server's map JSON, including the derived image URL.
type MapRecord struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	ImagePath   *string          `json:"image_path"`
	ImageURL    *string          `json:"image_url"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	IsActive    bool             `json:"is_active"`
	IsPublished bool             `json:"is_published"`
	Buildings   []BuildingRecord `json:"buildings"`
}

type BuildingRecord struct {
	ID          string  `json:"id"`
	MapID       string  `json:"map_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

func (c *Client) Maps(ctx context.Context) ([]MapRecord, error) {
	var out []MapRecord
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/api/map")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list maps failed: %s", resp.Status())
	}
	return out, nil
}

// ActiveMap returns the currently displayed map, or (nil, nil) when no map
// has been activated yet.
func (c *Client) ActiveMap(ctx context.Context) (*MapRecord, error) {
	var out MapRecord
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/api/map/active")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch active map failed: %s", resp.Status())
	}
	return &out, nil
}

func (c *Client) ActivateMap(ctx context.Context, id string) (*MapRecord, error) {
	var out MapRecord
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Put("/api/map/" + id + "/activate")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("activate map failed: %s", resp.Status())
	}
	return &out, nil
}
