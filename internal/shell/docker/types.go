// Package docker provides a read-only Docker Engine client used to report
// the state of the rebuilt containers.
package docker

import (
	"context"
	"time"
)

// =============================================================================
// Container Info
// =============================================================================

// ContainerStatus represents the container status.
type ContainerStatus string

const (
	ContainerStatusCreated    ContainerStatus = "created"
	ContainerStatusRunning    ContainerStatus = "running"
	ContainerStatusPaused     ContainerStatus = "paused"
	ContainerStatusRestarting ContainerStatus = "restarting"
	ContainerStatusRemoving   ContainerStatus = "removing"
	ContainerStatusExited     ContainerStatus = "exited"
	ContainerStatusDead       ContainerStatus = "dead"
)

// PortBinding defines a published port.
type PortBinding struct {
	ContainerPort int
	HostPort      int    // 0 when not published
	Protocol      string // "tcp" or "udp"
	HostIP        string
}

// ContainerInfo contains information about a container.
type ContainerInfo struct {
	ID        string
	Name      string
	Image     string
	Status    ContainerStatus
	Health    string // "healthy", "unhealthy", "starting", ""
	CreatedAt time.Time
	StartedAt *time.Time
	Ports     []PortBinding
	ExitCode  int
}

// =============================================================================
// Client Interface
// =============================================================================

// Client is the subset of the Docker Engine API the status report needs.
type Client interface {
	InspectContainer(ctx context.Context, name string) (*ContainerInfo, error)
	ImageExists(ctx context.Context, ref string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
