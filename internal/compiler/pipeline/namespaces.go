package pipeline

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/conceptgen/internal/compiler/model"
)

// InternNamespace returns the namespace with the given dotted name, creating it
// and any missing ancestors. Repeated calls return the same node.
func InternNamespace(m *model.Model, fullName string) (*model.Namespace, error) {
	if ns, ok := m.Index().LookupNamespace(fullName); ok {
		return ns, nil
	}

	names := strings.Split(fullName, ".")
	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("invalid namespace %q", fullName)
		}
	}

	var ns *model.Namespace
	parent := model.NoNamespace
	path := ""
	for _, name := range names {
		if path != "" {
			path += "."
		}
		path += name

		existing, ok := m.Index().LookupNamespace(path)
		if !ok {
			existing = m.CreateNamespace(name, parent)
		}
		ns = existing
		parent = ns.ID
	}
	return ns, nil
}

func (p *Pipeline) buildNamespaces() error {
	p.versionNS = make([]model.NamespaceID, len(p.versions))
	for i, entry := range p.versions {
		ns, err := InternNamespace(p.model, entry.Version.Namespace)
		if err != nil {
			return fmt.Errorf("%s@%s: %w", entry.Specification.Name, entry.Version.Name, err)
		}
		p.versionNS[i] = ns.ID
	}
	return nil
}
