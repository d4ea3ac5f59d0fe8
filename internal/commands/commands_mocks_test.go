package commands

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/mock"
)

type mockSignalNotifier struct {
	mock.Mock
}

func (m *mockSignalNotifier) Notify(c chan<- os.Signal, sig ...os.Signal) {
	m.Called(c, sig)
}

func (m *mockSignalNotifier) Stop(c chan<- os.Signal) {
	m.Called(c)
}

// interruptAfter configures the notifier to deliver os.Interrupt after d
func (m *mockSignalNotifier) interruptAfter(d time.Duration) {
	m.On("Notify", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		c := args.Get(0).(chan<- os.Signal)
		go func() {
			time.Sleep(d)
			c <- os.Interrupt
		}()
	})
	m.On("Stop", mock.Anything).Return()
}

type mockOutput struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockOutput) Printf(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintf(format, args...))
}

func (m *mockOutput) Println(args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, fmt.Sprintln(args...))
}

func (m *mockOutput) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.messages, "")
}

type mockPrompter struct {
	mock.Mock
}

func (m *mockPrompter) SelectEndpoint(opts ...tea.ProgramOption) (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}
