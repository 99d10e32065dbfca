package plugin

import (
	"io"
	"log/slog"
	"reflect"

	"github.com/stretchr/testify/mock"

	"github.com/reglet-dev/plugin-registry/plugin/dto"
	"github.com/reglet-dev/plugin-registry/plugin/values"
	"github.com/reglet-dev/plugin-registry/validation"
)

// MockTypeResolver implements ports.TypeResolver for testing
type MockTypeResolver struct {
	mock.Mock
}

func (m *MockTypeResolver) ResolveType(name values.TypeName) (reflect.Type, error) {
	args := m.Called(name)
	t, _ := args.Get(0).(reflect.Type)
	return t, args.Error(1)
}

// MockValidator implements validation.ManifestValidator
type MockValidator struct {
	Result *validation.ValidationResult
	Err    error
	Called bool
}

func (m *MockValidator) Validate(manifest *dto.ManifestDTO) (*validation.ValidationResult, error) {
	m.Called = true
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &validation.ValidationResult{Valid: true}, nil
}

// NewTestLogger creates a logger that discards output
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
