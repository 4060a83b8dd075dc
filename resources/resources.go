// Package resources consumes the read-only auxiliary HTTP endpoints served
// next to the websocket: the team list, the location map and the iCalendar
// feed of scheduled talks.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rohow/mopad-client/types"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Teams fetches the JSON list of team names used for registration.
func (c *Client) Teams(ctx context.Context) ([]string, error) {
	teams := make([]string, 0)
	if err := c.getJSON(ctx, "/teams.json", &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// Locations fetches the JSON map of scheduling venues.
func (c *Client) Locations(ctx context.Context) (map[int64]types.Location, error) {
	locations := make(map[int64]types.Location)
	if err := c.getJSON(ctx, "/locations.json", &locations); err != nil {
		return nil, err
	}
	for id, l := range locations {
		l.Id = id
		locations[id] = l
	}
	return locations, nil
}

// Calendar fetches the iCalendar feed of scheduled talks, optionally
// restricted to one user's noob/nerd memberships. The payload is passed
// through untouched.
func (c *Client) Calendar(ctx context.Context, userID *int64) ([]byte, error) {
	path := "/talks.ics"
	if userID != nil {
		path += "?user_id=" + url.QueryEscape(strconv.FormatInt(*userID, 10))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) getJSON(ctx context.Context, path string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
