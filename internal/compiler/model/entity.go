package model

// EntityID identifies an entity in a Model.
type EntityID int

// TraitID identifies a trait in a Model.
type TraitID int

const (
	// NoEntity marks an absent entity link.
	NoEntity EntityID = -1
	// NoTrait marks an absent trait link.
	NoTrait TraitID = -1
)

// VersionRef names the specification version that declared an entity.
type VersionRef struct {
	Specification string
	Version       string
}

func (v VersionRef) String() string {
	return v.Specification + "@" + v.Version
}

// Node is the shape shared by entities and traits.
type Node struct {
	Namespace  NamespaceID
	Name       string
	FullName   string
	Properties *PropertySet
	// Leaf is true when no more specific namespace declares a node of the same name
	Leaf bool
}

// Entity is a concrete record type.
type Entity struct {
	Node
	ID EntityID
	// Parent is the same-named entity in the nearest less specific namespace
	Parent EntityID
	// Version is nil for entities synthesized during normalization
	Version *VersionRef
	// Traits lists the composed traits
	Traits []TraitID
	// Root marks the topmost node of a version
	Root bool
	// PropertyOrder is the explicit property order, if declared
	PropertyOrder []string
	// Synthetic marks a shared ancestor created during normalization
	Synthetic bool
}

// Trait is a bundle of properties composed into entities.
type Trait struct {
	Node
	ID TraitID
	// Parent is the same-named trait in the nearest less specific namespace
	Parent TraitID
	// Transparent traits only donate properties and are removed after composition
	Transparent bool
	// Removed is set once the trait has been eliminated
	Removed bool
}
