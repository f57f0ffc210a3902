package global

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentCacheTTL(t *testing.T) {
	assert.Equal(t, 5*time.Minute, Development.DefaultCacheTTL())
	assert.Equal(t, 5*time.Minute, Test.DefaultCacheTTL())
	assert.Equal(t, 15*time.Minute, Production.DefaultCacheTTL())
}

func TestParseEnvironment_UnknownFallsBackToDevelopment(t *testing.T) {
	assert.Equal(t, Production, ParseEnvironment("production"))
	assert.Equal(t, Development, ParseEnvironment("staging"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("API_URL", "")
	t.Setenv("CACHE_TTL", "")
	t.Setenv("TAX_RATE", "")
	t.Setenv("SESSION_STORE", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api", cfg.APIURL)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 0.18, cfg.TaxRate)
	assert.Equal(t, "memory", cfg.SessionStore)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_ProductionRequiresAPIURL(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("API_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("API_URL", "https://shop.example.com/api")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("TAX_RATE", "0.12")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 0.12, cfg.TaxRate)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.CookieSecure)
}

func TestLoadConfig_RejectsUnknownSessionStore(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SESSION_STORE", "etcd")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestListResponse_States(t *testing.T) {
	empty := ListResponse[int](nil)
	payload := empty.Data.(ListPayload)
	assert.Equal(t, ListEmpty, payload.State)
	assert.Equal(t, []int{}, payload.Items)

	full := ListResponse([]string{"a", "b"})
	payload = full.Data.(ListPayload)
	assert.Equal(t, ListPopulated, payload.State)
	assert.Equal(t, 2, payload.Count)
}
