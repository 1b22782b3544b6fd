package app

import (
	"context"
	"errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"os"
	"testing"
	"time"
)

func TestCreateApp(t *testing.T) {
	_, err := CreateApp(&Config{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "service name is required")
	require.Contains(t, err.Error(), "stop timeout is required")
}

func newApp(t *testing.T, deps ...Dependency) *App {
	t.Helper()
	a, err := CreateApp(&Config{ServiceName: "test", StopTimeout: time.Second}, deps...)
	require.NoError(t, err)
	return a
}

func TestApp_Run(t *testing.T) {
	boom := errors.New("boom")

	tests := map[string]struct {
		setup    func(first, second *MockDependency)
		cmd      Command
		expected error
	}{
		"starts and stops in order": {
			setup: func(first, second *MockDependency) {
				gomock.InOrder(
					first.EXPECT().Start().Return(nil),
					second.EXPECT().Start().Return(nil),
					second.EXPECT().Stop().Return(nil),
					first.EXPECT().Stop().Return(nil),
				)
			},
			cmd: func(ctx context.Context) error { return nil },
		},
		"command error": {
			setup: func(first, second *MockDependency) {
				first.EXPECT().Start().Return(nil)
				second.EXPECT().Start().Return(nil)
				second.EXPECT().Stop().Return(nil)
				first.EXPECT().Stop().Return(nil)
			},
			cmd:      func(ctx context.Context) error { return boom },
			expected: boom,
		},
		"start failure stops started ones": {
			setup: func(first, second *MockDependency) {
				first.EXPECT().Start().Return(nil)
				second.EXPECT().Start().Return(boom)
				first.EXPECT().Stop().Return(nil)
			},
			cmd: func(ctx context.Context) error {
				panic("command must not run")
			},
			expected: boom,
		},
		"stop failure": {
			setup: func(first, second *MockDependency) {
				first.EXPECT().Start().Return(nil)
				second.EXPECT().Start().Return(nil)
				second.EXPECT().Stop().Return(boom)
				first.EXPECT().Stop().Return(nil)
			},
			cmd:      func(ctx context.Context) error { return nil },
			expected: boom,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			first := NewMockDependency(ctrl)
			second := NewMockDependency(ctrl)
			first.EXPECT().Name().Return("first").AnyTimes()
			second.EXPECT().Name().Return("second").AnyTimes()
			tc.setup(first, second)

			err := newApp(t, first, second).Run(context.Background(), tc.cmd)
			if tc.expected == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestApp_Run_Signal(t *testing.T) {
	a := newApp(t)
	a.osSignalChan <- os.Interrupt

	err := a.Run(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestApp_Run_Panic(t *testing.T) {
	err := newApp(t).Run(context.Background(), func(ctx context.Context) error {
		panic("broken")
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "panic in command of test: broken")
}

func TestApp_Run_Twice(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Run(context.Background(), func(ctx context.Context) error { return nil }))
	require.EqualError(t, a.Run(context.Background(), func(ctx context.Context) error { return nil }), "run has already been called")
}

func TestApp_Stop_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	slow := NewMockDependency(ctrl)
	slow.EXPECT().Name().Return("slow").AnyTimes()
	slow.EXPECT().Start().Return(nil)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	slow.EXPECT().Stop().DoAndReturn(func() error {
		<-release
		return nil
	})

	a, err := CreateApp(&Config{ServiceName: "test", StopTimeout: 10 * time.Millisecond}, slow)
	require.NoError(t, err)
	err = a.Run(context.Background(), func(ctx context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
