package reflection

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

var errType = reflect.TypeOf((*error)(nil)).Elem()

// Analyzer performs reflection-based analysis of component structs and
// constructor functions. It caches analysis results per type.
type Analyzer struct {
	mu      sync.RWMutex
	structs map[reflect.Type]*StructInfo
	funcs   map[reflect.Type]*FuncInfo
}

// StructInfo describes a struct type and the chain of structs it embeds.
type StructInfo struct {
	Type   reflect.Type
	Levels []LevelInfo // leaf first
}

// LevelInfo is one struct in an embedding chain.
type LevelInfo struct {
	Type reflect.Type

	// Index is the field index path from the leaf struct to this level.
	// It is empty for the leaf itself.
	Index []int

	// Fields holds the fields declared directly on this level that carry
	// an inject tag, in declaration order.
	Fields []FieldInfo
}

// FieldInfo describes a struct field carrying an inject tag.
type FieldInfo struct {
	Name     string
	Type     reflect.Type
	Index    int // field index within the level struct
	Exported bool
	Tag      TagInfo
}

// TagInfo contains parsed inject tag information.
type TagInfo struct {
	Ignore bool
	Name   string
}

// FuncInfo contains analyzed information about a function.
type FuncInfo struct {
	Type           reflect.Type
	Params         []reflect.Type
	Result         reflect.Type // first return value
	HasErrorReturn bool         // returns error as last value
}

// TagError reports a malformed inject tag.
type TagError struct {
	Field  string
	Tag    string
	Reason string
}

func (e *TagError) Error() string {
	return fmt.Sprintf("field %s: invalid inject tag %q: %s", e.Field, e.Tag, e.Reason)
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		structs: make(map[reflect.Type]*StructInfo),
		funcs:   make(map[reflect.Type]*FuncInfo),
	}
}

// AnalyzeStruct walks t and the structs it embeds by value. For every level
// the first anonymous struct-kind field is the next level; embedded pointers
// and interfaces are not followed.
func (a *Analyzer) AnalyzeStruct(t reflect.Type) (*StructInfo, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("expected struct type, got %v", t)
	}

	a.mu.RLock()
	if cached, ok := a.structs[t]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	info := &StructInfo{Type: t}

	var index []int
	for level := t; level != nil; {
		li := LevelInfo{
			Type:  level,
			Index: append([]int(nil), index...),
		}

		var next reflect.Type
		for i := 0; i < level.NumField(); i++ {
			field := level.Field(i)

			if next == nil && field.Anonymous && field.Type.Kind() == reflect.Struct {
				next = field.Type
				index = append(index, i)
			}

			raw, ok := field.Tag.Lookup("inject")
			if !ok {
				continue
			}

			tag, err := ParseTag(raw)
			if err != nil {
				return nil, &TagError{Field: level.Name() + "." + field.Name, Tag: raw, Reason: err.Error()}
			}

			if tag.Ignore {
				continue
			}

			li.Fields = append(li.Fields, FieldInfo{
				Name:     field.Name,
				Type:     field.Type,
				Index:    i,
				Exported: field.IsExported(),
				Tag:      tag,
			})
		}

		info.Levels = append(info.Levels, li)
		level = next
	}

	a.mu.Lock()
	a.structs[t] = info
	a.mu.Unlock()

	return info, nil
}

// AnalyzeFunc analyzes a constructor function. The function must return
// exactly one value, optionally followed by an error.
func (a *Analyzer) AnalyzeFunc(fn any) (*FuncInfo, error) {
	if fn == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %T", fn)
	}
	if val.IsNil() {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	typ := val.Type()

	a.mu.RLock()
	if cached, ok := a.funcs[typ]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	if typ.IsVariadic() {
		return nil, fmt.Errorf("variadic constructor %v is not supported", typ)
	}

	info := &FuncInfo{Type: typ}

	switch typ.NumOut() {
	case 1:
		if typ.Out(0) == errType {
			return nil, fmt.Errorf("constructor %v only returns error", typ)
		}
	case 2:
		if typ.Out(1) != errType {
			return nil, fmt.Errorf("second return value of %v must be error", typ)
		}
		info.HasErrorReturn = true
	default:
		return nil, fmt.Errorf("constructor %v must return a value and an optional error", typ)
	}
	info.Result = typ.Out(0)

	info.Params = make([]reflect.Type, typ.NumIn())
	for i := range info.Params {
		info.Params[i] = typ.In(i)
	}

	a.mu.Lock()
	a.funcs[typ] = info
	a.mu.Unlock()

	return info, nil
}

// ParseTag parses the value of an inject struct tag.
// Supported formats:
//   - `inject:""` - inject by type
//   - `inject:"name=foo"` - inject the binding named foo
//   - `inject:"-"` - never inject
func ParseTag(tag string) (TagInfo, error) {
	info := TagInfo{}

	if tag == "" {
		return info, nil
	}

	if tag == "-" {
		info.Ignore = true
		return info, nil
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)

		switch {
		case part == "":
		case strings.HasPrefix(part, "name="):
			info.Name = strings.TrimPrefix(part, "name=")
			if info.Name == "" {
				return TagInfo{}, fmt.Errorf("empty name")
			}
		default:
			return TagInfo{}, fmt.Errorf("unknown option %q", part)
		}
	}

	return info, nil
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.structs) + len(a.funcs)
}
