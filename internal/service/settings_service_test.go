package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
)

// Mock settings repository for testing
type mockSettingsRepository struct {
	mu      sync.Mutex
	saved   *domain.VisualizationSettings
	saves   int
	clears  int
	loadErr error
	saveErr error
}

func (m *mockSettingsRepository) Save(s domain.VisualizationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	c := s.Clone()
	m.saved = &c
	return nil
}

func (m *mockSettingsRepository) Load() (domain.VisualizationSettings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.VisualizationSettings{}, false, m.loadErr
	}
	if m.saved == nil {
		return domain.VisualizationSettings{}, false, nil
	}
	return m.saved.Clone(), true, nil
}

func (m *mockSettingsRepository) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	m.saved = nil
	return nil
}

func ptr[T any](v T) *T { return &v }

func newTestSettingsService(repo *mockSettingsRepository) (*SettingsService, *eventbus.SyncEventBus) {
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())
	return NewSettingsService(logger.NewTestLogger(), repo, bus), bus
}

func TestSettingsService_Defaults(t *testing.T) {
	service, _ := newTestSettingsService(&mockSettingsRepository{})

	assert.Equal(t, domain.DefaultSettings(), service.Current())
}

func TestSettingsService_RestoresSaved(t *testing.T) {
	saved := domain.DefaultSettings()
	saved.Mode = domain.ModeParticles
	saved.Sensitivity = 3
	repo := &mockSettingsRepository{saved: &saved}

	service, _ := newTestSettingsService(repo)

	assert.Equal(t, domain.ModeParticles, service.Current().Mode)
	assert.Equal(t, 3, service.Current().Sensitivity)
}

func TestSettingsService_IgnoresBrokenSaved(t *testing.T) {
	bad := domain.DefaultSettings()
	bad.CustomColors = []string{"not-a-color"}

	tests := []struct {
		name string
		repo *mockSettingsRepository
	}{
		{"load error", &mockSettingsRepository{loadErr: errors.New("corrupt")}},
		{"invalid color", &mockSettingsRepository{saved: &bad}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _ := newTestSettingsService(tt.repo)
			assert.Equal(t, domain.DefaultSettings(), service.Current())
		})
	}
}

func TestSettingsService_NilRepository(t *testing.T) {
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())
	service := NewSettingsService(logger.NewTestLogger(), nil, bus)

	_, err := service.Update(domain.SettingsPatch{Sensitivity: ptr(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, service.Current().Sensitivity)
	service.Reset()
	assert.Equal(t, domain.DefaultSettings(), service.Current())
}

func TestSettingsService_UpdateRoundTrip(t *testing.T) {
	repo := &mockSettingsRepository{}
	service, bus := newTestSettingsService(repo)

	var events []domain.SettingsUpdatedEvent
	bus.Subscribe(domain.EventSettingsUpdated, func(e domain.Event) {
		events = append(events, e.(domain.SettingsUpdatedEvent))
	})

	got, err := service.Update(domain.SettingsPatch{
		Mode:        ptr(domain.ModeCircular),
		Sensitivity: ptr(9),
	})
	require.NoError(t, err)

	// Fields outside the patch are unchanged.
	want := domain.DefaultSettings()
	want.Mode = domain.ModeCircular
	want.Sensitivity = 9
	assert.Equal(t, want, got)
	assert.Equal(t, want, service.Current())

	require.Len(t, events, 1)
	assert.Equal(t, domain.ModeWaveform, events[0].Previous.Mode)
	assert.Equal(t, domain.ModeCircular, events[0].Current.Mode)
	assert.True(t, events[0].ModeChanged())

	require.NotNil(t, repo.saved)
	assert.Equal(t, want, *repo.saved)
}

func TestSettingsService_CustomColorsVerbatim(t *testing.T) {
	service, _ := newTestSettingsService(&mockSettingsRepository{})

	colors := []string{"#ABC", "#00ff7f"}
	got, err := service.Update(domain.SettingsPatch{
		ColorScheme:  ptr(domain.SchemeCustom),
		CustomColors: &colors,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"#ABC", "#00ff7f"}, got.CustomColors)

	// The service keeps its own copy.
	colors[0] = "#000000"
	assert.Equal(t, "#ABC", service.Current().CustomColors[0])
}

func TestSettingsService_UpdateRejected(t *testing.T) {
	tests := []struct {
		name  string
		patch domain.SettingsPatch
		field string
	}{
		{"sensitivity low", domain.SettingsPatch{Sensitivity: ptr(0)}, "sensitivity"},
		{"sensitivity high", domain.SettingsPatch{Sensitivity: ptr(11)}, "sensitivity"},
		{"unknown mode", domain.SettingsPatch{Mode: ptr(domain.Mode("laser"))}, "mode"},
		{"density", domain.SettingsPatch{ParticleDensity: ptr(500)}, "particleDensity"},
		{"rotation", domain.SettingsPatch{RotationSpeed: ptr(-1.0)}, "rotationSpeed"},
		{"bad color", domain.SettingsPatch{CustomColors: &[]string{"#12345"}}, "customColors"},
		{"too many colors", domain.SettingsPatch{CustomColors: &[]string{"#000", "#111", "#222", "#333", "#444"}}, "customColors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSettingsRepository{}
			service, bus := newTestSettingsService(repo)
			published := 0
			bus.Subscribe(domain.EventSettingsUpdated, func(domain.Event) { published++ })

			got, err := service.Update(tt.patch)
			require.Error(t, err)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			assert.Equal(t, domain.DefaultSettings(), got)
			assert.Equal(t, domain.DefaultSettings(), service.Current())
			assert.Zero(t, published)
			assert.Zero(t, repo.saves)
		})
	}
}

func TestSettingsService_EmptyPatch(t *testing.T) {
	repo := &mockSettingsRepository{}
	service, bus := newTestSettingsService(repo)
	published := 0
	bus.Subscribe(domain.EventSettingsUpdated, func(domain.Event) { published++ })

	got, err := service.Update(domain.SettingsPatch{})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)
	assert.Zero(t, published)
	assert.Zero(t, repo.saves)
}

func TestSettingsService_PersistFailureKeepsUpdate(t *testing.T) {
	repo := &mockSettingsRepository{saveErr: errors.New("disk full")}
	service, _ := newTestSettingsService(repo)

	_, err := service.Update(domain.SettingsPatch{Sensitivity: ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, service.Current().Sensitivity)
}

func TestSettingsService_Reset(t *testing.T) {
	repo := &mockSettingsRepository{}
	service, bus := newTestSettingsService(repo)

	_, err := service.Update(domain.SettingsPatch{Mode: ptr(domain.Mode3D)})
	require.NoError(t, err)

	var last domain.SettingsUpdatedEvent
	bus.Subscribe(domain.EventSettingsUpdated, func(e domain.Event) {
		last = e.(domain.SettingsUpdatedEvent)
	})

	got := service.Reset()
	assert.Equal(t, domain.DefaultSettings(), got)
	assert.Equal(t, domain.DefaultSettings(), service.Current())
	assert.Equal(t, 1, repo.clears)
	assert.Nil(t, repo.saved)
	assert.Equal(t, domain.Mode3D, last.Previous.Mode)
	assert.True(t, last.ModeChanged())
}

func TestSettingsService_SnapshotsDoNotAlias(t *testing.T) {
	service, _ := newTestSettingsService(&mockSettingsRepository{})

	snap := service.Current()
	*snap.ParticleDensity = 199
	snap.Sensitivity = 1

	assert.Equal(t, domain.DefaultParticleDensity, *service.Current().ParticleDensity)
	assert.Equal(t, domain.DefaultSensitivity, service.Current().Sensitivity)
}

func TestSettingsService_ConcurrentUpdates(t *testing.T) {
	service, bus := newTestSettingsService(&mockSettingsRepository{})

	var mu sync.Mutex
	var events []domain.SettingsUpdatedEvent
	bus.Subscribe(domain.EventSettingsUpdated, func(e domain.Event) {
		mu.Lock()
		events = append(events, e.(domain.SettingsUpdatedEvent))
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_, err := service.Update(domain.SettingsPatch{Sensitivity: ptr(v%10 + 1)})
			assert.NoError(t, err)
			_ = service.Current()
		}(i)
	}
	wg.Wait()

	assert.Len(t, events, 20)
	s := service.Current().Sensitivity
	assert.GreaterOrEqual(t, s, domain.MinSensitivity)
	assert.LessOrEqual(t, s, domain.MaxSensitivity)
}
