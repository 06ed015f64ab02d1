package pipeline

import (
	"sort"

	cerrors "github.com/conduit-lang/conceptgen/internal/compiler/errors"
	"github.com/conduit-lang/conceptgen/internal/compiler/model"
)

// buildVisitors mirrors the namespace tree as visitor nodes, assigns each entity
// to the node of its namespace and prunes branches without entities.
func (p *Pipeline) buildVisitors() error {
	m := p.model

	// Sorted by full name, a parent always precedes its children.
	byNamespace := make(map[model.NamespaceID]model.VisitorID)
	for _, ns := range m.Namespaces() {
		parent := model.NoVisitor
		if !ns.IsTopLevel() {
			parent = byNamespace[ns.Parent]
		}
		byNamespace[ns.ID] = m.CreateVisitor(ns.ID, parent).ID
	}

	for _, e := range m.Entities() {
		v := m.Visitor(byNamespace[e.Namespace])
		v.Entities = append(v.Entities, e.ID)
	}

	return pruneVisitors(m)
}

// pruneVisitors removes visitor nodes with no entities and no remaining
// children until a pass removes nothing.
func pruneVisitors(m *model.Model) error {
	bound := len(m.Visitors()) + 1
	for pass := 0; ; pass++ {
		if pass > bound {
			return cerrors.NewConsistencyError(cerrors.ErrFixpointBound,
				"visitor pruning did not converge within %d passes", bound)
		}

		live := m.Visitors()
		sort.SliceStable(live, func(i, j int) bool {
			di, dj := live[i].Depth(), live[j].Depth()
			if di != dj {
				return di > dj
			}
			return live[i].FullName < live[j].FullName
		})

		removed := 0
		for _, v := range live {
			if len(v.Entities) == 0 && len(v.Children) == 0 {
				m.PruneVisitor(v.ID)
				removed++
			}
		}
		if removed == 0 {
			return nil
		}
	}
}
