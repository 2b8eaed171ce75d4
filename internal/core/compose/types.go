package compose

// =============================================================================
// Summary Types
// =============================================================================

// Summary is what the preflight reports about a compose file.
type Summary struct {
	File     string           `json:"file"`
	Project  string           `json:"project"`
	Services []ServiceSummary `json:"services"`
}

// ServiceSummary describes one compose service.
type ServiceSummary struct {
	Name          string   `json:"name"`
	Image         string   `json:"image,omitempty"`
	ContainerName string   `json:"container_name,omitempty"`
	HasBuild      bool     `json:"has_build"`
	BuildContext  string   `json:"build_context,omitempty"`
	Ports         []string `json:"ports,omitempty"`
}

// ServiceNames returns the service names in summary order.
func (s *Summary) ServiceNames() []string {
	names := make([]string, 0, len(s.Services))
	for _, svc := range s.Services {
		names = append(names, svc.Name)
	}
	return names
}

// Matches reports which of the given names appear as a container name or
// image of some service. The result preserves the order of names.
func (s *Summary) Matches(names []string) []string {
	var found []string
	for _, n := range names {
		for _, svc := range s.Services {
			if svc.ContainerName == n || svc.Image == n || imageRepository(svc.Image) == n {
				found = append(found, n)
				break
			}
		}
	}
	return found
}

// Missing returns the names that no service references.
func (s *Summary) Missing(names []string) []string {
	found := s.Matches(names)
	var missing []string
	for _, n := range names {
		hit := false
		for _, f := range found {
			if f == n {
				hit = true
				break
			}
		}
		if !hit {
			missing = append(missing, n)
		}
	}
	return missing
}
