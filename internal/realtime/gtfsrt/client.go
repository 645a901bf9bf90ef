// Package gtfsrt fetches a GTFS-RT vehicle positions feed and converts its
// entities into train position pings.
package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"google.golang.org/protobuf/proto"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"

	"github.com/Jsakkos/caltrain-tracker/internal/otp"
)

// Client polls a GTFS-RT vehicle positions feed
type Client struct {
	url    string
	loc    *time.Location
	client *http.Client
}

// NewClient creates a feed client. Ping timestamps are converted into loc,
// the service's local time zone, before being handed to the store.
func NewClient(url string, loc *time.Location) *Client {
	return &Client{
		url: url,
		loc: loc,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// FetchPings fetches the feed and returns one ping per usable entity,
// along with the count of entities skipped for missing trip, stop, or
// position. An entity is usable when it carries a trip ID, the stop it is
// currently approaching, and a position.
func (c *Client) FetchPings(ctx context.Context) ([]otp.Ping, int, error) {
	feed, err := c.fetchFeed(ctx)
	if err != nil {
		return nil, 0, err
	}

	var pings []otp.Ping
	skipped := 0
	for _, entity := range feed.Entity {
		vehicle := entity.Vehicle
		if vehicle == nil {
			continue
		}

		if vehicle.Trip == nil || vehicle.Trip.TripId == nil ||
			vehicle.StopId == nil || vehicle.Position == nil ||
			vehicle.Position.Latitude == nil || vehicle.Position.Longitude == nil {
			skipped++
			continue
		}

		recordedAt := time.Now()
		if vehicle.Timestamp != nil {
			recordedAt = time.Unix(int64(*vehicle.Timestamp), 0)
		}

		pings = append(pings, otp.Ping{
			TripID:     *vehicle.Trip.TripId,
			StopID:     *vehicle.StopId,
			Lat:        float64(*vehicle.Position.Latitude),
			Lon:        float64(*vehicle.Position.Longitude),
			RecordedAt: recordedAt.In(c.loc),
		})
	}

	if skipped > 0 {
		log.Printf("Feed: skipped %d entities without trip, stop, or position", skipped)
	}

	return pings, skipped, nil
}

// fetchFeed fetches and parses the protobuf feed
func (c *Client) fetchFeed(ctx context.Context) (*gtfs.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("failed to parse protobuf: %w", err)
	}

	return feed, nil
}
