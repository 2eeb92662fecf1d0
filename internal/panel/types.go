package panel

import "time"

// User is a managed VPN subscription account.
type User struct {
	ID                string     `json:"uuid"`
	Username          string     `json:"username"`
	Status            string     `json:"status"`
	UsedTrafficBytes  int64      `json:"used_traffic_bytes"`
	TrafficLimitBytes int64      `json:"traffic_limit_bytes"`
	ExpireAt          *time.Time `json:"expire_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// UserPage is one page of the user listing.
type UserPage struct {
	Items []User `json:"items"`
	Total int    `json:"total"`
}

// Node is a fleet member serving VPN traffic.
type Node struct {
	ID               string    `json:"uuid"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	Port             int       `json:"port"`
	IsConnected      bool      `json:"is_connected"`
	IsDisabled       bool      `json:"is_disabled"`
	UsersOnline      int       `json:"users_online"`
	UsedTrafficBytes int64     `json:"used_traffic_bytes"`
	CreatedAt        time.Time `json:"created_at"`
}

// NodeUsage is a node's traffic series entry.
type NodeUsage struct {
	NodeID        string    `json:"node_uuid"`
	UploadBytes   int64     `json:"upload_bytes"`
	DownloadBytes int64     `json:"download_bytes"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// SystemStats is the dashboard counter snapshot.
type SystemStats struct {
	TotalUsers        int   `json:"total_users"`
	ActiveUsers       int   `json:"active_users"`
	OnlineUsers       int   `json:"online_users"`
	TotalNodes        int   `json:"total_nodes"`
	ConnectedNodes    int   `json:"connected_nodes"`
	TotalTrafficBytes int64 `json:"total_traffic_bytes"`
}

// BandwidthStats aggregates traffic over the requested window.
type BandwidthStats struct {
	UploadBytes   int64 `json:"upload_bytes"`
	DownloadBytes int64 `json:"download_bytes"`
}

// Health reports backend component liveness.
type Health struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}
