package serve

import (
	"github.com/flow-github-pages/verify-api/internal/payload"
	"github.com/stretchr/testify/mock"
)

// Mock implementations for testing the API server
type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Greeting() (payload.GreetingResponse, error) {
	args := m.Called()
	return args.Get(0).(payload.GreetingResponse), args.Error(1)
}

func (m *mockGenerator) Sample() (payload.SampleResponse, error) {
	args := m.Called()
	return args.Get(0).(payload.SampleResponse), args.Error(1)
}

func (m *mockGenerator) Info() payload.ServerInfo {
	args := m.Called()
	return args.Get(0).(payload.ServerInfo)
}

// panicGenerator panics on every call
type panicGenerator struct{}

func (panicGenerator) Greeting() (payload.GreetingResponse, error) { panic("boom") }
func (panicGenerator) Sample() (payload.SampleResponse, error)     { panic("boom") }
func (panicGenerator) Info() payload.ServerInfo                    { panic("boom") }
