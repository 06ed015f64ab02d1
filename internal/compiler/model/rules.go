package model

import (
	"fmt"
	"strings"
)

// RuleKind identifies the shape a union branch is recognized by when reading raw input.
type RuleKind int

const (
	RuleIsBoolean RuleKind = iota + 1
	RuleIsString
	RuleIsNumber
	RuleIsInteger
	RuleIsArray
	RuleIsObject
	RuleIsObjectWithProperty
	RuleIsObjectWithoutProperty
	RuleIsObjectWithPropertyValue
	RuleIsObjectWithPropertyType
)

var ruleKindNames = map[RuleKind]string{
	RuleIsBoolean:                 "isBoolean",
	RuleIsString:                  "isString",
	RuleIsNumber:                  "isNumber",
	RuleIsInteger:                 "isInteger",
	RuleIsArray:                   "isArray",
	RuleIsObject:                  "isObject",
	RuleIsObjectWithProperty:      "isObjectWithProperty",
	RuleIsObjectWithoutProperty:   "isObjectWithoutProperty",
	RuleIsObjectWithPropertyValue: "isObjectWithPropertyValue",
	RuleIsObjectWithPropertyType:  "isObjectWithPropertyType",
}

func (k RuleKind) String() string {
	if name, ok := ruleKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RuleKind(%d)", int(k))
}

// ParseRuleKind looks up a rule kind by name.
func ParseRuleKind(name string) (RuleKind, bool) {
	for kind, n := range ruleKindNames {
		if n == name {
			return kind, true
		}
	}
	return 0, false
}

// NeedsProperty reports whether the rule inspects a named property.
func (k RuleKind) NeedsProperty() bool {
	switch k {
	case RuleIsObjectWithProperty, RuleIsObjectWithoutProperty,
		RuleIsObjectWithPropertyValue, RuleIsObjectWithPropertyType:
		return true
	}
	return false
}

// NeedsValue reports whether the rule compares a property value or type.
func (k RuleKind) NeedsValue() bool {
	return k == RuleIsObjectWithPropertyValue || k == RuleIsObjectWithPropertyType
}

// UnionRule identifies which branch of a union applies to a raw input value.
type UnionRule struct {
	// Branch is the canonical raw form of the union member
	Branch string
	Kind   RuleKind
	// Property is the inspected property name, for property rules
	Property string
	// Value is the expected value or JSON kind, for value and type rules
	Value string
	// Implicit marks rules derived from the branch shape rather than declared
	Implicit bool
}

// NewUnionRule validates the arguments of a declared rule.
func NewUnionRule(branch, kind, property, value string) (UnionRule, error) {
	k, ok := ParseRuleKind(kind)
	if !ok {
		return UnionRule{}, fmt.Errorf("unknown rule kind %q", kind)
	}
	if k.NeedsProperty() && property == "" {
		return UnionRule{}, fmt.Errorf("rule %s requires a property", k)
	}
	if k.NeedsValue() && value == "" {
		return UnionRule{}, fmt.Errorf("rule %s requires a value", k)
	}
	return UnionRule{Branch: branch, Kind: k, Property: property, Value: value}, nil
}

func (r UnionRule) String() string {
	var b strings.Builder
	b.WriteString(r.Kind.String())
	if r.Property != "" {
		b.WriteString("(" + r.Property)
		if r.Value != "" {
			b.WriteString("=" + r.Value)
		}
		b.WriteString(")")
	}
	return b.String()
}
