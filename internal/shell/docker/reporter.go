package docker

import (
	"context"
	"errors"
	"log/slog"
)

// ContainerReport is the post-rebuild state of one named container.
type ContainerReport struct {
	Name         string
	Found        bool
	Status       ContainerStatus
	Health       string
	Ports        []string
	ImagePresent bool
	Err          error
}

// Reporter inspects containers after a rebuild and logs what it finds.
// It never changes container state.
type Reporter struct {
	client Client
	logger *slog.Logger
}

// NewReporter creates a Reporter.
func NewReporter(c Client, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{client: c, logger: logger}
}

// Report inspects each name as both a container and an image.
func (r *Reporter) Report(ctx context.Context, names []string) []ContainerReport {
	reports := make([]ContainerReport, 0, len(names))
	for _, name := range names {
		rep := ContainerReport{Name: name}

		info, err := r.client.InspectContainer(ctx, name)
		switch {
		case err == nil:
			rep.Found = true
			rep.Status = info.Status
			rep.Health = info.Health
			for _, p := range info.Ports {
				rep.Ports = append(rep.Ports, p.String())
			}
		case errors.Is(err, ErrContainerNotFound):
		default:
			rep.Err = err
		}

		present, err := r.client.ImageExists(ctx, name)
		if err != nil && rep.Err == nil {
			rep.Err = err
		}
		rep.ImagePresent = present

		r.log(rep)
		reports = append(reports, rep)
	}
	return reports
}

func (r *Reporter) log(rep ContainerReport) {
	if rep.Err != nil {
		r.logger.Warn("container status unavailable", "name", rep.Name, "error", rep.Err)
		return
	}
	if !rep.Found {
		r.logger.Warn("container missing", "name", rep.Name, "image_present", rep.ImagePresent)
		return
	}
	r.logger.Info("container status",
		"name", rep.Name,
		"status", string(rep.Status),
		"health", rep.Health,
		"ports", rep.Ports,
		"image_present", rep.ImagePresent,
	)
}
