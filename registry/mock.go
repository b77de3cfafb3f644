package registry

import (
	"context"

	"github.com/ruteri/android-provisioning-backend/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockRegistry mocks the interfaces.DeviceRegistry interface.
type MockRegistry struct {
	mock.Mock
}

// AllDevices mocks the AllDevices method.
func (m *MockRegistry) AllDevices(ctx context.Context) (map[interfaces.DeviceID]interfaces.DeviceRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[interfaces.DeviceID]interfaces.DeviceRecord), args.Error(1)
}

// DeviceStatus mocks the DeviceStatus method.
func (m *MockRegistry) DeviceStatus(ctx context.Context, id interfaces.DeviceID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

// SendCommand mocks the SendCommand method.
func (m *MockRegistry) SendCommand(ctx context.Context, id interfaces.DeviceID, cmd interfaces.Command) error {
	args := m.Called(ctx, id, cmd)
	return args.Error(0)
}

// DeleteDevice mocks the DeleteDevice method.
func (m *MockRegistry) DeleteDevice(ctx context.Context, id interfaces.DeviceID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
