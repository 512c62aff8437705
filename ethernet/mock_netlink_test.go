// Hand-written mock of the netlink.Link interface, kept in the shape
// MockGen emits for github.com/xcoresim/xcoresim/netlink (interfaces: Link).

package ethernet

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"
)

// MockLink is a mock of the netlink.Link interface.
type MockLink struct {
	ctrl     *gomock.Controller
	recorder *MockLinkMockRecorder
}

// MockLinkMockRecorder is the mock recorder for MockLink.
type MockLinkMockRecorder struct {
	mock *MockLink
}

// NewMockLink creates a new mock instance.
func NewMockLink(ctrl *gomock.Controller) *MockLink {
	mock := &MockLink{ctrl: ctrl}
	mock.recorder = &MockLinkMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockLink) EXPECT() *MockLinkMockRecorder {
	return m.recorder
}

// TransmitFrame mocks base method.
func (m *MockLink) TransmitFrame(data []byte) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "TransmitFrame", data)
	ret0, _ := ret[0].(error)
	return ret0
}

// TransmitFrame indicates an expected call of TransmitFrame.
func (mr *MockLinkMockRecorder) TransmitFrame(data interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TransmitFrame", reflect.TypeOf((*MockLink)(nil).TransmitFrame), data)
}

// ReceiveFrame mocks base method.
func (m *MockLink) ReceiveFrame(buf []byte) (int, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ReceiveFrame", buf)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(bool)
	ret2, _ := ret[2].(error)
	return ret0, ret1, ret2
}

// ReceiveFrame indicates an expected call of ReceiveFrame.
func (mr *MockLinkMockRecorder) ReceiveFrame(buf interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ReceiveFrame", reflect.TypeOf((*MockLink)(nil).ReceiveFrame), buf)
}

// Close mocks base method.
func (m *MockLink) Close() error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Close")
	ret0, _ := ret[0].(error)
	return ret0
}

// Close indicates an expected call of Close.
func (mr *MockLinkMockRecorder) Close() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Close", reflect.TypeOf((*MockLink)(nil).Close))
}
