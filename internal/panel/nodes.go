package panel

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"remnawave.dev/internal/client"
)

// NodesService monitors and controls the VPN node fleet.
type NodesService struct {
	client *client.Client
}

func (s *NodesService) List(ctx context.Context) ([]Node, error) {
	var nodes []Node
	if err := s.client.Get(ctx, "/nodes", nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *NodesService) Get(ctx context.Context, id string) (Node, error) {
	id, err := requireID(id, "node id")
	if err != nil {
		return Node{}, err
	}
	var node Node
	if err := s.client.Get(ctx, "/nodes/"+url.PathEscape(id), nil, &node); err != nil {
		return Node{}, err
	}
	return node, nil
}

// Enable returns a disabled node to rotation.
func (s *NodesService) Enable(ctx context.Context, id string) (Node, error) {
	return s.toggle(ctx, id, "enable")
}

// Disable takes a node out of rotation without deleting it.
func (s *NodesService) Disable(ctx context.Context, id string) (Node, error) {
	return s.toggle(ctx, id, "disable")
}

func (s *NodesService) toggle(ctx context.Context, id, verb string) (Node, error) {
	id, err := requireID(id, "node id")
	if err != nil {
		return Node{}, err
	}
	var node Node
	if err := s.client.Post(ctx, "/nodes/"+url.PathEscape(id)+"/"+verb, nil, &node); err != nil {
		return Node{}, err
	}
	return node, nil
}

// Restart asks the node agent to reconnect.
func (s *NodesService) Restart(ctx context.Context, id string) error {
	id, err := requireID(id, "node id")
	if err != nil {
		return err
	}
	return s.client.Post(ctx, "/nodes/"+url.PathEscape(id)+"/restart", nil, nil)
}

// Usage returns the node's traffic series between start and end.
func (s *NodesService) Usage(ctx context.Context, id string, start, end time.Time) ([]NodeUsage, error) {
	id, err := requireID(id, "node id")
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	if !start.IsZero() {
		query.Set("start", strconv.FormatInt(start.Unix(), 10))
	}
	if !end.IsZero() {
		query.Set("end", strconv.FormatInt(end.Unix(), 10))
	}
	var usage []NodeUsage
	if err := s.client.Get(ctx, "/nodes/"+url.PathEscape(id)+"/usage", query, &usage); err != nil {
		return nil, err
	}
	return usage, nil
}
