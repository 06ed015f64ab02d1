package errors

import (
	"fmt"
)

// Syntax error codes (PRS001-099)
const (
	// ErrEmptyExpression indicates an empty type expression or an empty container
	ErrEmptyExpression ErrorCode = "PRS001"
	// ErrContainerAfterType indicates '{' or '[' directly following a completed type
	ErrContainerAfterType ErrorCode = "PRS002"
	// ErrTokenAfterContainer indicates a token directly following a closed container
	ErrTokenAfterContainer ErrorCode = "PRS003"
	// ErrMismatchedClose indicates a closing delimiter with no matching opener
	ErrMismatchedClose ErrorCode = "PRS004"
	// ErrUnclosedContainer indicates input ended while a container was open
	ErrUnclosedContainer ErrorCode = "PRS005"
	// ErrEmptyUnionMember indicates a '|' without a type on one of its sides
	ErrEmptyUnionMember ErrorCode = "PRS006"
)

// Link error codes (LNK100-199)
const (
	// ErrUnresolvedEntity indicates a property type references an unknown entity
	ErrUnresolvedEntity ErrorCode = "LNK101"
	// ErrUnresolvedTrait indicates an entity composes an unknown trait
	ErrUnresolvedTrait ErrorCode = "LNK102"
	// ErrUnknownUnionBranch indicates a union rule names a branch that is not a member
	ErrUnknownUnionBranch ErrorCode = "LNK103"
	// ErrInvalidUnionRule indicates a union rule with an unknown kind or missing arguments
	ErrInvalidUnionRule ErrorCode = "LNK104"
)

// Composition error codes (CMP200-299)
const (
	// ErrTraitPropertyRedeclared indicates an entity redeclares a property donated by a trait
	ErrTraitPropertyRedeclared ErrorCode = "CMP201"
	// ErrConflictingTraitProperty indicates two composed traits donate the same property
	ErrConflictingTraitProperty ErrorCode = "CMP202"
	// ErrDuplicateDeclaration indicates a node or property was declared twice
	ErrDuplicateDeclaration ErrorCode = "CMP203"
)

// Consistency error codes (CON300-399)
const (
	// ErrParentCycle indicates a cycle in a parent chain
	ErrParentCycle ErrorCode = "CON301"
	// ErrFixpointBound indicates a fixpoint loop exceeded its iteration bound
	ErrFixpointBound ErrorCode = "CON302"
	// ErrUnresolvedType indicates a property without a resolved type after resolution
	ErrUnresolvedType ErrorCode = "CON303"
	// ErrStageOrder indicates a pipeline stage ran out of order or twice
	ErrStageOrder ErrorCode = "CON304"
	// ErrDanglingReference indicates a reference to a removed or missing node
	ErrDanglingReference ErrorCode = "CON305"
)

// ParseError reports a malformed type expression.
type ParseError struct {
	CompilerError
	// Input is the complete type expression
	Input string `json:"input"`
	// Offset is the byte offset of the offending character
	Offset int `json:"offset"`
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q at offset %d", e.CompilerError.Error(), e.Input, e.Offset)
}

// NewParseError creates a syntax error for input at offset.
func NewParseError(code ErrorCode, input string, offset int, message string) *ParseError {
	err := &ParseError{
		CompilerError: newError(code, "parse_error", CategorySyntax, message),
		Input:         input,
		Offset:        offset,
	}
	err.Raw = input
	return err
}

// LinkError reports a reference that cannot be resolved.
type LinkError struct {
	CompilerError
	// Reference is the unresolved name
	Reference string `json:"reference"`
}

// Error implements the error interface
func (e *LinkError) Error() string {
	return e.CompilerError.Error()
}

// NewUnresolvedEntity creates a LNK101 error
func NewUnresolvedEntity(namespace, owner, property, raw, reference string) *LinkError {
	err := &LinkError{
		CompilerError: newError(ErrUnresolvedEntity, "unresolved_entity", CategoryLink,
			fmt.Sprintf("Unknown entity '%s' in type '%s'", reference, raw)),
		Reference: reference,
	}
	err.WithOwner(namespace, owner).WithProperty(property)
	err.Raw = raw
	err.WithSuggestion("Declare the entity in this namespace or one of its ancestors")
	return err
}

// NewUnresolvedTrait creates a LNK102 error
func NewUnresolvedTrait(namespace, owner, reference string) *LinkError {
	err := &LinkError{
		CompilerError: newError(ErrUnresolvedTrait, "unresolved_trait", CategoryLink,
			fmt.Sprintf("Unknown trait '%s'", reference)),
		Reference: reference,
	}
	err.WithOwner(namespace, owner)
	err.Raw = reference
	return err
}

// NewUnknownUnionBranch creates a LNK103 error
func NewUnknownUnionBranch(namespace, owner, property, raw, branch string) *LinkError {
	err := &LinkError{
		CompilerError: newError(ErrUnknownUnionBranch, "unknown_union_branch", CategoryLink,
			fmt.Sprintf("Union rule names branch '%s' which is not a member of '%s'", branch, raw)),
		Reference: branch,
	}
	err.WithOwner(namespace, owner).WithProperty(property)
	err.Raw = raw
	return err
}

// NewInvalidUnionRule creates a LNK104 error
func NewInvalidUnionRule(namespace, owner, property, rule, reason string) *LinkError {
	err := &LinkError{
		CompilerError: newError(ErrInvalidUnionRule, "invalid_union_rule", CategoryLink,
			fmt.Sprintf("Invalid union rule '%s': %s", rule, reason)),
		Reference: rule,
	}
	err.WithOwner(namespace, owner).WithProperty(property)
	err.Raw = rule
	return err
}

// CompositionError reports a property name conflict introduced by trait composition.
type CompositionError struct {
	CompilerError
	// Trait is the full name of the donating trait, if any
	Trait string `json:"trait,omitempty"`
}

// Error implements the error interface
func (e *CompositionError) Error() string {
	return e.CompilerError.Error()
}

// NewTraitPropertyRedeclared creates a CMP201 error
func NewTraitPropertyRedeclared(namespace, entity, trait, property string) *CompositionError {
	err := &CompositionError{
		CompilerError: newError(ErrTraitPropertyRedeclared, "trait_property_redeclared", CategoryComposition,
			fmt.Sprintf("Property '%s' is declared by both the entity and trait '%s'", property, trait)),
		Trait: trait,
	}
	err.WithOwner(namespace, entity).WithProperty(property)
	err.WithSuggestion("Remove the property from the entity or from the trait")
	return err
}

// NewConflictingTraitProperty creates a CMP202 error
func NewConflictingTraitProperty(namespace, entity, first, second, property string) *CompositionError {
	err := &CompositionError{
		CompilerError: newError(ErrConflictingTraitProperty, "conflicting_trait_property", CategoryComposition,
			fmt.Sprintf("Property '%s' is donated by both trait '%s' and trait '%s'", property, first, second)),
		Trait: second,
	}
	err.WithOwner(namespace, entity).WithProperty(property)
	return err
}

// NewDuplicateDeclaration creates a CMP203 error
func NewDuplicateDeclaration(namespace, owner, what string) *CompositionError {
	err := &CompositionError{
		CompilerError: newError(ErrDuplicateDeclaration, "duplicate_declaration", CategoryComposition,
			fmt.Sprintf("Duplicate declaration of %s", what)),
	}
	err.WithOwner(namespace, owner)
	return err
}

// ConsistencyError reports a violated internal invariant. It indicates a defect in the
// compiler rather than in the input.
type ConsistencyError struct {
	CompilerError
}

// Error implements the error interface
func (e *ConsistencyError) Error() string {
	return e.CompilerError.Error()
}

// NewConsistencyError creates a consistency error with the given code.
func NewConsistencyError(code ErrorCode, format string, args ...any) *ConsistencyError {
	return &ConsistencyError{
		CompilerError: newError(code, "consistency_violation", CategoryConsistency, fmt.Sprintf(format, args...)),
	}
}
