package system

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingService struct {
	name     string
	startErr error
	stopErr  error
	events   *[]string
}

func (s *recordingService) Name() string { return s.name }

func (s *recordingService) Start(context.Context) error {
	*s.events = append(*s.events, "start:"+s.name)
	return s.startErr
}

func (s *recordingService) Stop(context.Context) error {
	*s.events = append(*s.events, "stop:"+s.name)
	return s.stopErr
}

func TestManagerStartStopOrder(t *testing.T) {
	var events []string
	m := NewManager(nil)
	require.NoError(t, m.Register(&recordingService{name: "a", events: &events}))
	require.NoError(t, m.Register(&recordingService{name: "b", events: &events}))
	assert.Equal(t, []string{"a", "b"}, m.Services())

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Stop(context.Background()))

	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, events)
}

func TestManagerRollsBackOnStartFailure(t *testing.T) {
	var events []string
	m := NewManager(nil)
	require.NoError(t, m.Register(&recordingService{name: "a", events: &events}))
	require.NoError(t, m.Register(&recordingService{name: "b", startErr: errors.New("boom"), events: &events}))
	require.NoError(t, m.Register(&recordingService{name: "c", events: &events}))

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start b")
	assert.Equal(t, []string{"start:a", "start:b", "stop:a"}, events)
}

func TestManagerRegisterValidation(t *testing.T) {
	var events []string
	m := NewManager(nil)
	assert.Error(t, m.Register(nil))
	require.NoError(t, m.Register(&recordingService{name: "a", events: &events}))
	assert.Error(t, m.Register(&recordingService{name: "a", events: &events}))

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Register(&recordingService{name: "late", events: &events}))
}

func TestManagerStopCollectsErrors(t *testing.T) {
	var events []string
	m := NewManager(nil)
	require.NoError(t, m.Register(&recordingService{name: "a", stopErr: errors.New("x"), events: &events}))
	require.NoError(t, m.Register(&recordingService{name: "b", stopErr: errors.New("y"), events: &events}))
	require.NoError(t, m.Start(context.Background()))

	err := m.Stop(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop a")
	assert.Contains(t, err.Error(), "stop b")
}
