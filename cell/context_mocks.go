// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package cell

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"
)

// MockFinalizer is a mock of Finalizer interface.
type MockFinalizer struct {
	ctrl     *gomock.Controller
	recorder *MockFinalizerMockRecorder
}

// MockFinalizerMockRecorder is the mock recorder for MockFinalizer.
type MockFinalizerMockRecorder struct {
	mock *MockFinalizer
}

// NewMockFinalizer creates a new mock instance.
func NewMockFinalizer(ctrl *gomock.Controller) *MockFinalizer {
	mock := &MockFinalizer{ctrl: ctrl}
	mock.recorder = &MockFinalizerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockFinalizer) EXPECT() *MockFinalizerMockRecorder {
	return m.recorder
}

// FinalizeCell mocks base method.
func (m *MockFinalizer) FinalizeCell(cell *PartialCell) (Cell, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FinalizeCell", cell)
	ret0, _ := ret[0].(Cell)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FinalizeCell indicates an expected call of FinalizeCell.
func (mr *MockFinalizerMockRecorder) FinalizeCell(cell any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FinalizeCell", reflect.TypeOf((*MockFinalizer)(nil).FinalizeCell), cell)
}

// MockContext is a mock of Context interface.
type MockContext struct {
	ctrl     *gomock.Controller
	recorder *MockContextMockRecorder
}

// MockContextMockRecorder is the mock recorder for MockContext.
type MockContextMockRecorder struct {
	mock *MockContext
}

// NewMockContext creates a new mock instance.
func NewMockContext(ctrl *gomock.Controller) *MockContext {
	mock := &MockContext{ctrl: ctrl}
	mock.recorder = &MockContextMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockContext) EXPECT() *MockContextMockRecorder {
	return m.recorder
}

// FinalizeCell mocks base method.
func (m *MockContext) FinalizeCell(cell *PartialCell) (Cell, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FinalizeCell", cell)
	ret0, _ := ret[0].(Cell)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FinalizeCell indicates an expected call of FinalizeCell.
func (mr *MockContextMockRecorder) FinalizeCell(cell any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FinalizeCell", reflect.TypeOf((*MockContext)(nil).FinalizeCell), cell)
}

// LoadCell mocks base method.
func (m *MockContext) LoadCell(cell Cell, mode LoadMode) (Cell, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LoadCell", cell, mode)
	ret0, _ := ret[0].(Cell)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// LoadCell indicates an expected call of LoadCell.
func (mr *MockContextMockRecorder) LoadCell(cell, mode any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LoadCell", reflect.TypeOf((*MockContext)(nil).LoadCell), cell, mode)
}
