// Package reflection analyzes Go constructor functions once so the type
// universe can describe them without further reflection.
package reflection

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/dig"
)

var (
	inType  = reflect.TypeFor[dig.In]()
	errType = reflect.TypeFor[error]()
)

var (
	// ErrNil is returned for nil constructors.
	ErrNil = errors.New("constructor cannot be nil")

	// ErrNotFunc is returned when the constructor is not a function.
	ErrNotFunc = errors.New("constructor must be a function")

	// ErrNoResult is returned when the constructor produces no value.
	ErrNoResult = errors.New("constructor must return a non-error value")
)

// Analyzer performs reflection-based analysis of constructors.
// It caches analysis results per function.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[uintptr]*ConstructorInfo
}

// ConstructorInfo contains analyzed information about a constructor function.
type ConstructorInfo struct {
	Type           reflect.Type
	Value          reflect.Value
	Parameters     []ParameterInfo
	Result         reflect.Type
	IsParamObject  bool // single parameter embedding dig.In
	HasErrorReturn bool // (T, error)
}

// ParameterInfo describes a constructor parameter or a field of a parameter
// object.
type ParameterInfo struct {
	Type     reflect.Type
	Name     string // field name for parameter objects
	Index    int    // parameter index or field index
	Optional bool   // optional:"true"
	Variadic bool
	IsSlice  bool
	ElemType reflect.Type // element type if slice
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		cache: make(map[uintptr]*ConstructorInfo),
	}
}

// Analyze analyzes a constructor function. Constructors return either T or
// (T, error).
func (a *Analyzer) Analyze(constructor any) (*ConstructorInfo, error) {
	if constructor == nil {
		return nil, ErrNil
	}

	val := reflect.ValueOf(constructor)
	if val.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %T", ErrNotFunc, constructor)
	}
	if val.IsNil() {
		return nil, ErrNil
	}

	key := val.Pointer()
	a.mu.RLock()
	if cached, ok := a.cache[key]; ok && cached.Type == val.Type() {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	info := &ConstructorInfo{
		Type:  val.Type(),
		Value: val,
	}

	if err := a.analyzeParameters(info); err != nil {
		return nil, fmt.Errorf("failed to analyze parameters: %w", err)
	}
	if err := a.analyzeResult(info); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.cache[key] = info
	a.mu.Unlock()

	return info, nil
}

// ParametersOf analyzes only the parameters of a function. Unlike Analyze it
// accepts functions without results, such as fixture constructors returning
// nothing or startup hooks.
func (a *Analyzer) ParametersOf(fn any) ([]ParameterInfo, error) {
	if fn == nil {
		return nil, ErrNil
	}

	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w, got %T", ErrNotFunc, fn)
	}

	info := &ConstructorInfo{Type: val.Type(), Value: val}
	if err := a.analyzeParameters(info); err != nil {
		return nil, err
	}
	return info.Parameters, nil
}

func (a *Analyzer) analyzeParameters(info *ConstructorInfo) error {
	fnType := info.Type

	if fnType.NumIn() == 1 && IsParamObject(fnType.In(0)) {
		info.IsParamObject = true
		return a.analyzeParamObject(info, fnType.In(0))
	}

	info.Parameters = make([]ParameterInfo, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		paramType := fnType.In(i)
		info.Parameters[i] = ParameterInfo{
			Type:     paramType,
			Index:    i,
			Variadic: fnType.IsVariadic() && i == fnType.NumIn()-1,
			IsSlice:  paramType.Kind() == reflect.Slice,
			ElemType: sliceElem(paramType),
		}
	}

	return nil
}

func (a *Analyzer) analyzeParamObject(info *ConstructorInfo, structType reflect.Type) error {
	if structType.Kind() == reflect.Pointer {
		return fmt.Errorf("parameter object %v must be passed by value", structType)
	}

	params := make([]ParameterInfo, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() || (field.Anonymous && field.Type == inType) {
			continue
		}

		params = append(params, ParameterInfo{
			Type:     field.Type,
			Name:     field.Name,
			Index:    i,
			Optional: field.Tag.Get("optional") == "true",
			IsSlice:  field.Type.Kind() == reflect.Slice,
			ElemType: sliceElem(field.Type),
		})
	}

	info.Parameters = params
	return nil
}

func (a *Analyzer) analyzeResult(info *ConstructorInfo) error {
	fnType := info.Type

	switch fnType.NumOut() {
	case 1:
		if implementsError(fnType.Out(0)) {
			return ErrNoResult
		}
	case 2:
		if !implementsError(fnType.Out(1)) {
			return fmt.Errorf("second result of %v must be error", fnType)
		}
		info.HasErrorReturn = true
	default:
		if fnType.NumOut() == 0 {
			return ErrNoResult
		}
		return fmt.Errorf("constructor %v must return T or (T, error)", fnType)
	}

	info.Result = fnType.Out(0)
	return nil
}

// IsParamObject reports whether t is a struct embedding dig.In.
func IsParamObject(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type == inType {
			return true
		}
	}
	return false
}

func sliceElem(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Slice {
		return t.Elem()
	}
	return nil
}

func implementsError(t reflect.Type) bool {
	return t.Implements(errType)
}
