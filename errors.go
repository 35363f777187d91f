package ioc

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// These are base errors that are wrapped in typed errors when returned.
// Match them with errors.Is.

var (
	// Component errors, wrapped in IllegalComponentError.
	ErrAbstractComponent          = errors.New("abstract or interface type cannot be constructed")
	ErrMultipleInjectConstructors = errors.New("more than one injection constructor")
	ErrNoConstructor              = errors.New("no injection constructor and no zero-argument constructor")
	ErrImmutableField             = errors.New("injection field cannot be assigned")
	ErrGenericMethod              = errors.New("injection method declares type parameters")
	ErrIllegalTag                 = errors.New("tag is neither a qualifier nor a scope")
	ErrMultipleScopes             = errors.New("more than one scope")
	ErrUnknownScope               = errors.New("scope is not registered")
	ErrNotAssignable              = errors.New("type is not assignable to the declared type")
	ErrNilInstance                = errors.New("instance cannot be nil")
	ErrTypeNil                    = errors.New("type cannot be nil")
	ErrInvalidPoolSize            = errors.New("pool size must be at least 1")

	// Registration errors.
	ErrScopeNameEmpty = errors.New("scope name cannot be empty")
	ErrDecoratorNil   = errors.New("decorator factory cannot be nil")

	// Lifecycle errors.
	ErrAlreadyCommitted = errors.New("configuration already committed")

	// Resolution errors.
	ErrUnavailable = errors.New("reference cannot be resolved")
)

var (
	_ error = IllegalComponentError{}
	_ error = MissingDependencyError{}
	_ error = CyclicDependencyError{}
	_ error = ResolutionError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// IllegalComponentError reports a configuration defect in an implementation
// type or in qualifier and scope usage. It is returned at bind time.
type IllegalComponentError struct {
	Type  reflect.Type
	Cause error
}

func (e IllegalComponentError) Error() string {
	return fmt.Sprintf("illegal component %s: %v", formatType(e.Type), e.Cause)
}

func (e IllegalComponentError) Unwrap() error {
	return e.Cause
}

// MissingDependencyError reports a declared dependency without a binding.
// It is returned by Commit.
type MissingDependencyError struct {
	Dependent Identity
	Missing   Identity
}

func (e MissingDependencyError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("missing dependency: %s depends on unbound %s", e.Dependent, e.Missing))
	if e.Missing.Qualifier != nil {
		b.WriteString("\n\nMake sure the dependency is bound with the same qualifier.")
	}
	return b.String()
}

// CyclicDependencyError reports a cycle of direct references. Path holds
// every identity on the resolution stack when the cycle closed; Cycle
// returns the part of it that forms the loop. It is returned by Commit.
type CyclicDependencyError struct {
	Path  []Identity
	Start Identity
}

// Components returns every identity on the stack, in walk order.
func (e CyclicDependencyError) Components() []Identity {
	return slices.Clone(e.Path)
}

// Cycle returns the identities forming the loop, starting at Start.
func (e CyclicDependencyError) Cycle() []Identity {
	if i := slices.Index(e.Path, e.Start); i >= 0 {
		return e.Path[i:]
	}
	return e.Path
}

func (e CyclicDependencyError) Error() string {
	var b strings.Builder
	b.WriteString("circular dependency detected:\n\n")

	cycle := e.Cycle()
	for _, id := range cycle {
		b.WriteString(fmt.Sprintf("    %s\n", id))
		b.WriteString("      ↓\n")
	}
	b.WriteString(fmt.Sprintf("    %s (cycle)\n", e.Start))

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Request one side of the cycle through a Factory\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}

// ResolutionError wraps errors that occur while a Context builds a
// component: constructor errors, recovered panics and unavailable
// references.
type ResolutionError struct {
	Identity Identity
	Cause    error
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve %s: %v", e.Identity, e.Cause)
}

func (e ResolutionError) Unwrap() error {
	return e.Cause
}

// IsIllegalComponent reports whether err is or wraps an IllegalComponentError.
func IsIllegalComponent(err error) bool {
	var target IllegalComponentError
	return errors.As(err, &target)
}

// IsMissingDependency reports whether err is or wraps a MissingDependencyError.
func IsMissingDependency(err error) bool {
	var target MissingDependencyError
	return errors.As(err, &target)
}

// IsCyclicDependency reports whether err is or wraps a CyclicDependencyError.
func IsCyclicDependency(err error) bool {
	var target CyclicDependencyError
	return errors.As(err, &target)
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		// Format pointers as *Type instead of *package.Type
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if t.Name() == "" && elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	case reflect.Func:
		return t.String()
	default:
		// For named types, prefer the short name
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
