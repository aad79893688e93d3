package reflection_test

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/junioryono/yunit/internal/reflection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"
)

// Test types
type Database struct {
	ConnectionString string
}

type Logger interface {
	Log(msg string)
}

type UserService struct {
	DB     *Database
	Logger Logger
}

// Test constructors
func NewDatabase(connStr string) *Database {
	return &Database{ConnectionString: connStr}
}

func NewUserService(db *Database, logger Logger) *UserService {
	return &UserService{DB: db, Logger: logger}
}

func NewUserServiceWithError(db *Database) (*UserService, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	return &UserService{DB: db}, nil
}

func NewUserServiceVariadic(db *Database, loggers ...Logger) *UserService {
	return &UserService{DB: db}
}

type ServiceParams struct {
	dig.In

	Database *Database
	Logger   Logger `optional:"true"`
	Loggers  []Logger
	internal int
}

func NewServiceWithParams(params ServiceParams) *UserService {
	return &UserService{DB: params.Database, Logger: params.Logger}
}

func TestAnalyzer_SimpleConstructor(t *testing.T) {
	analyzer := reflection.New()

	info, err := analyzer.Analyze(NewDatabase)
	require.NoError(t, err, "Failed to analyze constructor")

	assert.False(t, info.IsParamObject)
	assert.False(t, info.HasErrorReturn)
	require.Len(t, info.Parameters, 1)
	assert.Equal(t, reflect.TypeFor[string](), info.Parameters[0].Type)
	assert.Equal(t, reflect.TypeFor[*Database](), info.Result)
}

func TestAnalyzer_ConstructorWithMultipleParams(t *testing.T) {
	analyzer := reflection.New()

	info, err := analyzer.Analyze(NewUserService)
	require.NoError(t, err)

	require.Len(t, info.Parameters, 2)
	assert.Equal(t, reflect.TypeFor[*Database](), info.Parameters[0].Type)
	assert.Equal(t, reflect.TypeFor[Logger](), info.Parameters[1].Type)
	assert.Equal(t, 1, info.Parameters[1].Index)
}

func TestAnalyzer_ErrorReturn(t *testing.T) {
	analyzer := reflection.New()

	info, err := analyzer.Analyze(NewUserServiceWithError)
	require.NoError(t, err)

	assert.True(t, info.HasErrorReturn)
	assert.Equal(t, reflect.TypeFor[*UserService](), info.Result)
}

func TestAnalyzer_Variadic(t *testing.T) {
	analyzer := reflection.New()

	info, err := analyzer.Analyze(NewUserServiceVariadic)
	require.NoError(t, err)

	require.Len(t, info.Parameters, 2)
	assert.False(t, info.Parameters[0].Variadic)
	assert.True(t, info.Parameters[1].Variadic)
	assert.True(t, info.Parameters[1].IsSlice)
	assert.Equal(t, reflect.TypeFor[Logger](), info.Parameters[1].ElemType)
}

func TestAnalyzer_ParamObject(t *testing.T) {
	analyzer := reflection.New()

	info, err := analyzer.Analyze(NewServiceWithParams)
	require.NoError(t, err)

	assert.True(t, info.IsParamObject)
	require.Len(t, info.Parameters, 3, "embedded dig.In and unexported fields are skipped")

	assert.Equal(t, "Database", info.Parameters[0].Name)
	assert.False(t, info.Parameters[0].Optional)

	assert.Equal(t, "Logger", info.Parameters[1].Name)
	assert.True(t, info.Parameters[1].Optional)

	assert.Equal(t, "Loggers", info.Parameters[2].Name)
	assert.True(t, info.Parameters[2].IsSlice)
}

func TestAnalyzer_InvalidConstructors(t *testing.T) {
	analyzer := reflection.New()

	tests := []struct {
		name        string
		constructor any
		target      error
	}{
		{"nil", nil, reflection.ErrNil},
		{"typed nil", (func() *Database)(nil), reflection.ErrNil},
		{"not a function", 42, reflection.ErrNotFunc},
		{"no result", func() {}, reflection.ErrNoResult},
		{"only error", func() error { return nil }, reflection.ErrNoResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := analyzer.Analyze(tt.constructor)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	t.Run("second result not error", func(t *testing.T) {
		_, err := analyzer.Analyze(func() (*Database, int) { return nil, 0 })
		assert.Error(t, err)
	})

	t.Run("too many results", func(t *testing.T) {
		_, err := analyzer.Analyze(func() (*Database, *UserService, error) { return nil, nil, nil })
		assert.Error(t, err)
	})
}

func TestAnalyzer_ParametersOf(t *testing.T) {
	analyzer := reflection.New()

	params, err := analyzer.ParametersOf(func(db *Database, n int) {})
	require.NoError(t, err)
	require.Len(t, params, 2)
	assert.Equal(t, reflect.TypeFor[int](), params[1].Type)

	_, err = analyzer.ParametersOf("nope")
	assert.ErrorIs(t, err, reflection.ErrNotFunc)
}

func TestAnalyzer_Cache(t *testing.T) {
	analyzer := reflection.New()

	first, err := analyzer.Analyze(NewDatabase)
	require.NoError(t, err)
	second, err := analyzer.Analyze(NewDatabase)
	require.NoError(t, err)

	assert.Same(t, first, second)

	other, err := analyzer.Analyze(NewUserService)
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	fresh, err := reflection.New().Analyze(NewDatabase)
	require.NoError(t, err)
	assert.NotSame(t, first, fresh, "caches are per analyzer")
}

func TestAnalyzer_Concurrent(t *testing.T) {
	analyzer := reflection.New()

	results := make([]*reflection.ConstructorInfo, 16)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := analyzer.Analyze(NewUserService)
			assert.NoError(t, err)
			results[i] = info
		}()
	}
	wg.Wait()

	cached, err := analyzer.Analyze(NewUserService)
	require.NoError(t, err)
	for _, info := range results {
		assert.Equal(t, cached.Type, info.Type)
	}
}

func TestIsParamObject(t *testing.T) {
	assert.True(t, reflection.IsParamObject(reflect.TypeFor[ServiceParams]()))
	assert.True(t, reflection.IsParamObject(reflect.TypeFor[*ServiceParams]()))
	assert.False(t, reflection.IsParamObject(reflect.TypeFor[Database]()))
	assert.False(t, reflection.IsParamObject(reflect.TypeFor[int]()))
}
