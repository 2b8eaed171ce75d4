package docker

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// =============================================================================
// Docker Client Implementation
// =============================================================================

// DockerClient implements the Client interface using the Docker SDK.
type DockerClient struct {
	cli *client.Client
}

// NewDockerClient creates a new Docker client.
// If host is empty, it uses the default Docker host from environment.
// On macOS with Docker Desktop, it automatically detects the correct socket.
func NewDockerClient(ctx context.Context, host string) (*DockerClient, error) {
	var opts []client.Opt
	opts = append(opts, client.FromEnv)
	opts = append(opts, client.WithAPIVersionNegotiation())

	if host != "" {
		opts = append(opts, client.WithHost(host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, NewDockerError("NewDockerClient", "", "", "failed to create client", ErrConnectionFailed)
	}

	if host == "" {
		if _, pingErr := cli.Ping(ctx); pingErr != nil {
			homeDir, _ := os.UserHomeDir()
			dockerDesktopSocket := "unix://" + homeDir + "/.docker/run/docker.sock"

			cli2, err2 := client.NewClientWithOpts(
				client.WithHost(dockerDesktopSocket),
				client.WithAPIVersionNegotiation(),
			)
			if err2 == nil {
				if _, pingErr2 := cli2.Ping(ctx); pingErr2 == nil {
					cli.Close()
					return &DockerClient{cli: cli2}, nil
				}
				cli2.Close()
			}
		}
	}

	return &DockerClient{cli: cli}, nil
}

// Ping checks if Docker daemon is reachable.
func (d *DockerClient) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return NewDockerError("Ping", "", "", fmt.Sprintf("failed to ping docker: %v", err), ErrConnectionFailed)
	}
	return nil
}

// Close closes the Docker client connection.
func (d *DockerClient) Close() error {
	return d.cli.Close()
}

// InspectContainer returns information about a container by name or ID.
func (d *DockerClient) InspectContainer(ctx context.Context, name string) (*ContainerInfo, error) {
	resp, err := d.cli.ContainerInspect(ctx, name)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, NewDockerError("InspectContainer", "container", name, "container not found", ErrContainerNotFound)
		}
		return nil, NewDockerError("InspectContainer", "container", name, err.Error(), err)
	}

	info := &ContainerInfo{
		ID:   resp.ID,
		Name: strings.TrimPrefix(resp.Name, "/"),
	}
	info.CreatedAt, _ = time.Parse(time.RFC3339Nano, resp.Created)

	if resp.Config != nil {
		info.Image = resp.Config.Image
	}

	if resp.State != nil {
		info.Status = ContainerStatus(resp.State.Status)
		info.ExitCode = resp.State.ExitCode
		if resp.State.StartedAt != "" && resp.State.StartedAt != "0001-01-01T00:00:00Z" {
			t, _ := time.Parse(time.RFC3339Nano, resp.State.StartedAt)
			info.StartedAt = &t
		}
		if resp.State.Health != nil {
			info.Health = resp.State.Health.Status
		}
	}

	if resp.NetworkSettings != nil {
		info.Ports = convertPorts(resp.NetworkSettings.Ports)
	}

	return info, nil
}

// ImageExists checks if an image exists locally.
func (d *DockerClient) ImageExists(ctx context.Context, ref string) (bool, error) {
	_, _, err := d.cli.ImageInspectWithRaw(ctx, ref)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, NewDockerError("ImageExists", "image", ref, err.Error(), err)
	}
	return true, nil
}

// convertPorts flattens a nat.PortMap into bindings sorted by container port.
// Exposed but unpublished ports appear with HostPort 0.
func convertPorts(portMap nat.PortMap) []PortBinding {
	var ports []PortBinding
	for containerPort, bindings := range portMap {
		port := containerPort.Int()
		proto := containerPort.Proto()
		if len(bindings) == 0 {
			ports = append(ports, PortBinding{ContainerPort: port, Protocol: proto})
			continue
		}
		for _, binding := range bindings {
			var hostPort int
			if binding.HostPort != "" {
				if p, err := nat.ParsePort(binding.HostPort); err == nil {
					hostPort = p
				}
			}
			ports = append(ports, PortBinding{
				ContainerPort: port,
				HostPort:      hostPort,
				Protocol:      proto,
				HostIP:        binding.HostIP,
			})
		}
	}
	sort.Slice(ports, func(i, j int) bool {
		if ports[i].ContainerPort != ports[j].ContainerPort {
			return ports[i].ContainerPort < ports[j].ContainerPort
		}
		if ports[i].Protocol != ports[j].Protocol {
			return ports[i].Protocol < ports[j].Protocol
		}
		return ports[i].HostIP < ports[j].HostIP
	})
	return ports
}

// String renders a binding the way `docker ps` does.
func (p PortBinding) String() string {
	if p.HostPort == 0 {
		return fmt.Sprintf("%d/%s", p.ContainerPort, p.Protocol)
	}
	host := p.HostIP
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d->%d/%s", host, p.HostPort, p.ContainerPort, p.Protocol)
}
