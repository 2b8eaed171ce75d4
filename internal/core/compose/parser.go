package compose

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/cli"
	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// DefaultProjectName is used when the compose file does not set one.
const DefaultProjectName = "rta"

// DefaultFileNames returns the file names docker compose looks for, in
// lookup order.
func DefaultFileNames() []string {
	return append([]string(nil), cli.DefaultFileNames...)
}

// =============================================================================
// Parser Functions
// =============================================================================

// Summarize parses a compose file into a Summary.
// This is a pure function - no I/O, no side effects.
// Input: file name (for messages), raw YAML, environment for interpolation
// Output: Summary with services sorted by name, or error
func Summarize(file string, content []byte, env map[string]string) (*Summary, error) {
	if strings.TrimSpace(string(content)) == "" {
		return nil, NewParseError(file, "", "file is empty", ErrEmptyInput)
	}

	project, err := loadProject(file, content, env)
	if err != nil {
		return nil, err
	}

	if len(project.Services) == 0 {
		return nil, NewParseError(file, "services", "no services defined", ErrNoServices)
	}

	summary := &Summary{
		File:     file,
		Project:  project.Name,
		Services: make([]ServiceSummary, 0, len(project.Services)),
	}
	for _, svc := range project.Services {
		converted, err := summarizeService(svc)
		if err != nil {
			return nil, NewParseError(file, "services."+svc.Name, err.Error(), err)
		}
		summary.Services = append(summary.Services, converted)
	}
	sort.Slice(summary.Services, func(i, j int) bool {
		return summary.Services[i].Name < summary.Services[j].Name
	})

	return summary, nil
}

// loadProject loads a compose project using compose-go
func loadProject(file string, content []byte, env map[string]string) (*types.Project, error) {
	var dict map[string]interface{}
	if err := yaml.Unmarshal(content, &dict); err != nil {
		return nil, NewParseError(file, "", "invalid YAML syntax", ErrInvalidYAML)
	}
	if dict == nil {
		return nil, NewParseError(file, "", "invalid YAML syntax", ErrInvalidYAML)
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Filename: file,
				Content:  content,
				Config:   dict,
			},
		},
		Environment: env,
	}, func(opts *loader.Options) {
		// A top-level `name:` or COMPOSE_PROJECT_NAME still wins.
		opts.SetProjectName(DefaultProjectName, false)
		opts.SkipValidation = false
		opts.SkipInterpolation = false
		// Build contexts stay relative to the compose file (cleaned, not made absolute).
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "image") && strings.Contains(errStr, "build") {
			return nil, NewParseError(file, "", "service must have image or build", ErrServiceImage)
		}
		return nil, NewParseError(file, "", errStr, ErrInvalidSpec)
	}

	return project, nil
}

// summarizeService converts a compose-go service to a ServiceSummary
func summarizeService(svc types.ServiceConfig) (ServiceSummary, error) {
	summary := ServiceSummary{
		Name:          svc.Name,
		Image:         svc.Image,
		ContainerName: svc.ContainerName,
	}

	if svc.Build != nil {
		summary.HasBuild = true
		summary.BuildContext = svc.Build.Context
	}

	if summary.Image == "" && !summary.HasBuild {
		return ServiceSummary{}, ErrServiceImage
	}

	for _, p := range svc.Ports {
		summary.Ports = append(summary.Ports, formatPort(p))
	}

	return summary, nil
}

// formatPort renders a port the way `docker compose ps` does.
func formatPort(p types.ServicePortConfig) string {
	proto := p.Protocol
	if proto == "" {
		proto = "tcp"
	}
	if p.Published == "" {
		return fmt.Sprintf("%d/%s", p.Target, proto)
	}
	host := p.HostIP
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%s->%d/%s", host, p.Published, p.Target, proto)
}

// imageRepository strips the tag from an image reference.
func imageRepository(image string) string {
	if i := strings.LastIndex(image, ":"); i > 0 && !strings.Contains(image[i:], "/") {
		return image[:i]
	}
	return image
}
