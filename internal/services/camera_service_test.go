package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gpscam/internal/models"
	"gpscam/internal/testutil"
)

func TestCameraService_CaptureBeforeInitialize(t *testing.T) {
	svc := NewCameraService(gpsConfig(), &MockFrameProvider{}, &testutil.MockLogger{})

	_, err := svc.Capture()
	assert.ErrorIs(t, err, models.ErrUninitialized)
}

func TestCameraService_InitializeAndCapture(t *testing.T) {
	provider := &MockFrameProvider{}
	svc := NewCameraService(gpsConfig(), provider, &testutil.MockLogger{})

	require.NoError(t, svc.Initialize(context.Background()))
	assert.True(t, svc.Initialized())

	frame, err := svc.Capture()
	require.NoError(t, err)
	assert.NotNil(t, frame)
	assert.Equal(t, 1, provider.FrameCalls)
}

func TestCameraService_DefaultSettings(t *testing.T) {
	provider := &MockFrameProvider{}
	svc := NewCameraService(gpsConfig(), provider, &testutil.MockLogger{})
	require.NoError(t, svc.Initialize(context.Background()))

	assert.Equal(t, "16:9", provider.LastSettings.AspectRatio)
	assert.Equal(t, "environment", provider.LastSettings.FacingMode)
}

func TestCameraService_PermissionDenied(t *testing.T) {
	provider := &MockFrameProvider{PermissionErr: models.ErrPermissionDenied}
	svc := NewCameraService(gpsConfig(), provider, &testutil.MockLogger{})

	err := svc.Initialize(context.Background())
	assert.ErrorIs(t, err, models.ErrPermissionDenied)
	assert.False(t, svc.Initialized())
	assert.Contains(t, svc.LastError(), "permission not granted")
}

func TestCameraService_StartFailure(t *testing.T) {
	provider := &MockFrameProvider{StartErr: errors.New("device busy")}
	svc := NewCameraService(gpsConfig(), provider, &testutil.MockLogger{})

	err := svc.Initialize(context.Background())
	require.Error(t, err)
	assert.False(t, svc.Initialized())

	_, err = svc.Capture()
	assert.ErrorIs(t, err, models.ErrUninitialized)
}

func TestCameraService_SwitchFacing(t *testing.T) {
	provider := &MockFrameProvider{}
	svc := NewCameraService(gpsConfig(), provider, &testutil.MockLogger{})
	require.NoError(t, svc.Initialize(context.Background()))

	require.NoError(t, svc.SwitchFacing(context.Background()))
	assert.Equal(t, "user", svc.Settings().FacingMode)
	// The running stream is torn down before the new one starts.
	assert.Equal(t, 1, provider.StopCalls)
	assert.Equal(t, 2, provider.StartCalls)

	require.NoError(t, svc.SwitchFacing(context.Background()))
	assert.Equal(t, "environment", svc.Settings().FacingMode)
}

func TestCameraService_Stop(t *testing.T) {
	provider := &MockFrameProvider{}
	svc := NewCameraService(gpsConfig(), provider, &testutil.MockLogger{})
	require.NoError(t, svc.Initialize(context.Background()))

	svc.Stop()
	assert.False(t, svc.Initialized())
	assert.False(t, provider.Started())

	_, err := svc.Capture()
	assert.ErrorIs(t, err, models.ErrUninitialized)
}

func TestCameraService_FrameError(t *testing.T) {
	provider := &MockFrameProvider{FrameErr: errors.New("stream stalled")}
	svc := NewCameraService(gpsConfig(), provider, &testutil.MockLogger{})
	require.NoError(t, svc.Initialize(context.Background()))

	_, err := svc.Capture()
	require.Error(t, err)
	assert.Contains(t, svc.LastError(), "stream stalled")
}

func TestAspectRatio(t *testing.T) {
	w, h := AspectRatio("16:9")
	assert.Equal(t, 16, w)
	assert.Equal(t, 9, h)

	w, h = AspectRatio("1:1")
	assert.Equal(t, 1, w)
	assert.Equal(t, h, w)

	w, h = AspectRatio("unknown")
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
}

func TestCameraService_Capture_CropsToConfiguredAspect(t *testing.T) {
	provider := &MockFrameProvider{FrameValue: testutil.TestFrame(64, 48)}
	svc := NewCameraService(gpsConfig(), provider, &testutil.MockLogger{})
	require.NoError(t, svc.Initialize(context.Background()))

	frame, err := svc.Capture()
	require.NoError(t, err)
	assert.Equal(t, 64, frame.Bounds().Dx())
	assert.Equal(t, 36, frame.Bounds().Dy())
}

func TestCameraService_Capture_FullAspectSkipsCrop(t *testing.T) {
	conf := gpsConfig()
	conf.Camera.AspectRatio = "full"
	provider := &MockFrameProvider{FrameValue: testutil.TestFrame(64, 48)}
	svc := NewCameraService(conf, provider, &testutil.MockLogger{})
	require.NoError(t, svc.Initialize(context.Background()))

	frame, err := svc.Capture()
	require.NoError(t, err)
	assert.Equal(t, 64, frame.Bounds().Dx())
	assert.Equal(t, 48, frame.Bounds().Dy())
}
