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

// MockCellVisitor is a mock of CellVisitor interface.
type MockCellVisitor struct {
	ctrl     *gomock.Controller
	recorder *MockCellVisitorMockRecorder
}

// MockCellVisitorMockRecorder is the mock recorder for MockCellVisitor.
type MockCellVisitorMockRecorder struct {
	mock *MockCellVisitor
}

// NewMockCellVisitor creates a new mock instance.
func NewMockCellVisitor(ctrl *gomock.Controller) *MockCellVisitor {
	mock := &MockCellVisitor{ctrl: ctrl}
	mock.recorder = &MockCellVisitorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockCellVisitor) EXPECT() *MockCellVisitorMockRecorder {
	return m.recorder
}

// Visit mocks base method.
func (m *MockCellVisitor) Visit(arg0 Cell, arg1 CellInfo) VisitResponse {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Visit", arg0, arg1)
	ret0, _ := ret[0].(VisitResponse)
	return ret0
}

// Visit indicates an expected call of Visit.
func (mr *MockCellVisitorMockRecorder) Visit(arg0, arg1 any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Visit", reflect.TypeOf((*MockCellVisitor)(nil).Visit), arg0, arg1)
}
