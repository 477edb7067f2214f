// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package eval is a generated GoMock package.
package eval

import (
	context "context"
	reflect "reflect"

	host "github.com/rainlanguage/rain.interpreter/go/host"
	rain "github.com/rainlanguage/rain.interpreter/go/rain"
	state "github.com/rainlanguage/rain.interpreter/go/state"
	gomock "go.uber.org/mock/gomock"
)

// MockHost is a mock of Host interface.
type MockHost struct {
	ctrl     *gomock.Controller
	recorder *MockHostMockRecorder
}

// MockHostMockRecorder is the mock recorder for MockHost.
type MockHostMockRecorder struct {
	mock *MockHost
}

// NewMockHost creates a new mock instance.
func NewMockHost(ctrl *gomock.Controller) *MockHost {
	mock := &MockHost{ctrl: ctrl}
	mock.recorder = &MockHostMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockHost) EXPECT() *MockHostMockRecorder {
	return m.recorder
}

// Call mocks base method.
func (m *MockHost) Call(ctx context.Context, from, to rain.Address, input []byte, value rain.Word) (*host.CallResult, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Call", ctx, from, to, input, value)
	ret0, _ := ret[0].(*host.CallResult)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Call indicates an expected call of Call.
func (mr *MockHostMockRecorder) Call(ctx, from, to, input, value any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Call", reflect.TypeOf((*MockHost)(nil).Call), ctx, from, to, input, value)
}

// Commit mocks base method.
func (m *MockHost) Commit(ctx context.Context, from, to rain.Address, input []byte, value rain.Word) (*host.CallResult, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Commit", ctx, from, to, input, value)
	ret0, _ := ret[0].(*host.CallResult)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Commit indicates an expected call of Commit.
func (mr *MockHostMockRecorder) Commit(ctx, from, to, input, value any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Commit", reflect.TypeOf((*MockHost)(nil).Commit), ctx, from, to, input, value)
}

// Overlay mocks base method.
func (m *MockHost) Overlay() *state.Overlay {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Overlay")
	ret0, _ := ret[0].(*state.Overlay)
	return ret0
}

// Overlay indicates an expected call of Overlay.
func (mr *MockHostMockRecorder) Overlay() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Overlay", reflect.TypeOf((*MockHost)(nil).Overlay))
}
