package mocks

import (
	"context"

	"crudview/internal/model"
	"crudview/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockStore[T model.Record] struct {
	mock.Mock
	NewFunc func() T
}

func (m *MockStore[T]) New() T {
	return m.NewFunc()
}

func (m *MockStore[T]) Count(ctx context.Context, q repository.Query) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}

func (m *MockStore[T]) List(ctx context.Context, q repository.Query) ([]T, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockStore[T]) Get(ctx context.Context, q repository.Query, lookup repository.Lookup) (T, error) {
	args := m.Called(ctx, q, lookup)
	if args.Get(0) == nil {
		var zero T
		return zero, args.Error(1)
	}
	return args.Get(0).(T), args.Error(1)
}

func (m *MockStore[T]) Save(ctx context.Context, rec T) (T, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		var zero T
		return zero, args.Error(1)
	}
	return args.Get(0).(T), args.Error(1)
}

func (m *MockStore[T]) Delete(ctx context.Context, rec T) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
