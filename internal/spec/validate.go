package spec

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	namespacePattern  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// ValidNamespace reports whether name is a dotted path of identifiers.
func ValidNamespace(name string) bool {
	return namespacePattern.MatchString(name)
}

// Validate checks the structural rules of every specification and returns all
// violations joined into one error.
func (r *Registry) Validate() error {
	var errs []error
	specNames := make(map[string]bool)
	for _, s := range r.Specifications() {
		where := s.Name
		if s.Source != "" {
			where = fmt.Sprintf("%s (%s)", s.Name, s.Source)
		}
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("specification in %q has no name", s.Source))
			continue
		}
		if specNames[s.Name] {
			errs = append(errs, fmt.Errorf("specification %s: declared more than once", where))
		}
		specNames[s.Name] = true
		errs = append(errs, validateSpecification(where, s)...)
	}
	return errors.Join(errs...)
}

func validateSpecification(where string, s *Specification) []error {
	var errs []error
	if len(s.Versions) == 0 {
		errs = append(errs, fmt.Errorf("specification %s: no versions", where))
	}
	versions := make(map[string]bool)
	for i, v := range s.Versions {
		if v == nil {
			errs = append(errs, fmt.Errorf("specification %s: empty version entry at index %d", where, i))
			continue
		}
		vWhere := fmt.Sprintf("%s version %q", where, v.Name)
		if v.Name == "" {
			errs = append(errs, fmt.Errorf("specification %s: version without a name", where))
		} else if versions[v.Name] {
			errs = append(errs, fmt.Errorf("%s: declared more than once", vWhere))
		}
		versions[v.Name] = true

		if !ValidNamespace(v.Namespace) {
			errs = append(errs, fmt.Errorf("%s: invalid namespace %q", vWhere, v.Namespace))
		}
		errs = append(errs, validateVersion(vWhere, v)...)
	}
	return errs
}

func validateVersion(where string, v *Version) []error {
	var errs []error
	traits := make(map[string]bool)
	for i, t := range v.Traits {
		if t == nil {
			errs = append(errs, fmt.Errorf("%s: empty trait entry at index %d", where, i))
			continue
		}
		if !identifierPattern.MatchString(t.Name) {
			errs = append(errs, fmt.Errorf("%s: invalid trait name %q", where, t.Name))
			continue
		}
		if traits[t.Name] {
			errs = append(errs, fmt.Errorf("%s: trait %s declared more than once", where, t.Name))
		}
		traits[t.Name] = true
		errs = append(errs, validateProperties(fmt.Sprintf("%s trait %s", where, t.Name), t.Properties)...)
	}

	entities := make(map[string]bool)
	for i, e := range v.Entities {
		if e == nil {
			errs = append(errs, fmt.Errorf("%s: empty entity entry at index %d", where, i))
			continue
		}
		if !identifierPattern.MatchString(e.Name) {
			errs = append(errs, fmt.Errorf("%s: invalid entity name %q", where, e.Name))
			continue
		}
		if entities[e.Name] {
			errs = append(errs, fmt.Errorf("%s: entity %s declared more than once", where, e.Name))
		}
		entities[e.Name] = true
		eWhere := fmt.Sprintf("%s entity %s", where, e.Name)
		for _, name := range e.Traits {
			if !identifierPattern.MatchString(name) {
				errs = append(errs, fmt.Errorf("%s: invalid trait reference %q", eWhere, name))
			}
		}
		errs = append(errs, validateProperties(eWhere, e.Properties)...)
	}
	return errs
}

func validateProperties(where string, props []*PropertyDecl) []error {
	var errs []error
	names := make(map[string]bool)
	for i, p := range props {
		if p == nil {
			errs = append(errs, fmt.Errorf("%s: empty property entry at index %d", where, i))
			continue
		}
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s: property without a name", where))
			continue
		}
		if names[p.Name] {
			errs = append(errs, fmt.Errorf("%s: property %s declared more than once", where, p.Name))
		}
		names[p.Name] = true
		if p.Type == "" {
			errs = append(errs, fmt.Errorf("%s: property %s has no type", where, p.Name))
		}
		for j, rule := range p.UnionRules {
			if rule == nil {
				errs = append(errs, fmt.Errorf("%s: property %s has an empty union rule entry at index %d", where, p.Name, j))
				continue
			}
			if rule.Branch == "" || rule.Rule == "" {
				errs = append(errs, fmt.Errorf("%s: property %s has a union rule without branch or rule", where, p.Name))
			}
		}
	}
	return errs
}
