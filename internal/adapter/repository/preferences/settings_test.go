package preferences

import (
	"sync"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tejashwikalptaru/govis/internal/domain"
)

// Helper to create a test settings repository
func newTestSettingsRepository() (*SettingsRepository, fyne.Preferences) {
	app := test.NewApp()
	prefs := app.Preferences()

	return NewSettingsRepository(prefs), prefs
}

func TestSettingsRepository_LoadNothingSaved(t *testing.T) {
	repo, _ := newTestSettingsRepository()

	_, ok, err := repo.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSettingsRepository_SaveAndLoad(t *testing.T) {
	repo, _ := newTestSettingsRepository()

	density := 80
	speed := 2.5
	saved := domain.VisualizationSettings{
		Mode:            domain.ModeParticles,
		Sensitivity:     4,
		ColorScheme:     domain.SchemeCustom,
		CustomColors:    []string{"#ff0000", "#ABC"},
		ParticleDensity: &density,
		RotationSpeed:   &speed,
	}
	require.NoError(t, repo.Save(saved))

	loaded, ok, err := repo.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved, loaded)
}

func TestSettingsRepository_SaveOverwritesPrevious(t *testing.T) {
	repo, _ := newTestSettingsRepository()

	require.NoError(t, repo.Save(domain.DefaultSettings()))

	next := domain.DefaultSettings()
	next.Mode = domain.Mode3D
	next.Sensitivity = 10
	require.NoError(t, repo.Save(next))

	loaded, ok, err := repo.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Mode3D, loaded.Mode)
	assert.Equal(t, 10, loaded.Sensitivity)
}

func TestSettingsRepository_CorruptData(t *testing.T) {
	repo, prefs := newTestSettingsRepository()
	prefs.SetString(keySettings, "{not json")

	_, ok, err := repo.Load()
	assert.False(t, ok)

	var serr *domain.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Load", serr.Op)
}

func TestSettingsRepository_Clear(t *testing.T) {
	repo, prefs := newTestSettingsRepository()

	require.NoError(t, repo.Save(domain.DefaultSettings()))
	require.NoError(t, repo.Clear())

	_, ok, err := repo.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, prefs.String(keySettings))

	// Clearing twice is fine
	assert.NoError(t, repo.Clear())
}

func TestSettingsRepository_ConcurrentAccess(t *testing.T) {
	repo, _ := newTestSettingsRepository()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s := domain.DefaultSettings()
			s.Sensitivity = i + 1
			assert.NoError(t, repo.Save(s))
		}()
		go func() {
			defer wg.Done()
			_, _, err := repo.Load()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, ok, err := repo.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.GreaterOrEqual(t, loaded.Sensitivity, 1)
	assert.LessOrEqual(t, loaded.Sensitivity, 10)
}
