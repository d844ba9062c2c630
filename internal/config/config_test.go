package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"HOST", "PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT", "ENVIRONMENT",
	"DB_DRIVER", "DB_DSN", "DB_PATH", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSL_MODE",
	"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME",
	"DB_LOG_LEVEL", "DB_AUTO_MIGRATE",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_POOL_SIZE",
	"REDIS_MIN_IDLE_CONNS", "REDIS_MAX_RETRIES", "REDIS_DIAL_TIMEOUT", "REDIS_READ_TIMEOUT", "REDIS_WRITE_TIMEOUT",
	"CACHE_ENABLED", "CACHE_LIST_TTL", "CACHE_L1_TTL",
	"JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "BCRYPT_COST",
	"AUTH_COOKIE_NAME", "AUTH_COOKIE_SECURE",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST", "RATE_LIMIT_CLEANUP",
	"CORS_ALLOWED_ORIGINS", "CORS_MAX_AGE",
}

// clearEnv blanks every variable LoadConfig reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvVars {
		t.Setenv(k, "")
	}
}

func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "8080", config.Server.Port)
	assert.Equal(t, "development", config.Server.Environment)
	assert.Equal(t, 30*time.Second, config.Server.ShutdownTimeout)

	assert.Equal(t, "postgres", config.Database.Driver)
	assert.Equal(t, "localhost", config.Database.Host)
	assert.Equal(t, "5432", config.Database.Port)
	assert.Equal(t, "postgres", config.Database.User)
	assert.Equal(t, "todo_list", config.Database.Name)
	assert.Equal(t, 25, config.Database.MaxOpenConns)
	assert.True(t, config.Database.AutoMigrate)

	assert.Equal(t, "localhost", config.Redis.Host)
	assert.Equal(t, "6379", config.Redis.Port)
	assert.Equal(t, 0, config.Redis.DB)
	assert.Equal(t, 10, config.Redis.PoolSize)

	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, 15*time.Minute, config.Cache.ListTTL)

	assert.Equal(t, 10, config.Auth.BCryptCost)
	assert.Equal(t, "access_token", config.Auth.CookieName)
	assert.False(t, config.Auth.CookieSecure)

	assert.True(t, config.RateLimit.Enabled)
	assert.Equal(t, 100, config.RateLimit.RequestsPerMin)

	assert.Equal(t, []string{"http://localhost:3000", "https://to-do-list-frontend-plum.vercel.app"},
		config.CORS.AllowedOrigins)
}

func TestLoadConfig_CustomEnvironment(t *testing.T) {
	clearEnv(t)
	setEnv(t, map[string]string{
		"HOST":                 "0.0.0.0",
		"PORT":                 "9000",
		"ENVIRONMENT":          "production",
		"DB_HOST":              "db.example.com",
		"DB_PASSWORD":          "secure_password",
		"DB_MAX_OPEN_CONNS":    "50",
		"REDIS_HOST":           "redis.example.com",
		"REDIS_DB":             "1",
		"JWT_SECRET":           "super-secret-key",
		"RATE_LIMIT_ENABLED":   "false",
		"READ_TIMEOUT":         "45s",
		"ACCESS_TOKEN_TTL":     "30m",
		"CORS_ALLOWED_ORIGINS": "https://app.example.com, https://admin.example.com,",
	})

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", config.GetServerAddr())
	assert.True(t, config.IsProduction())
	assert.Equal(t, "db.example.com", config.Database.Host)
	assert.Equal(t, 50, config.Database.MaxOpenConns)
	assert.Equal(t, "redis.example.com:6379", config.GetRedisAddr())
	assert.Equal(t, 1, config.Redis.DB)
	assert.Equal(t, "super-secret-key", config.Auth.JWTSecret)
	assert.False(t, config.RateLimit.Enabled)
	assert.Equal(t, 45*time.Second, config.Server.ReadTimeout)
	assert.Equal(t, 30*time.Minute, config.Auth.AccessTokenTTL)
	assert.True(t, config.Auth.CookieSecure, "production forces secure cookies")
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, config.CORS.AllowedOrigins)
}

func TestLoadConfig_ProductionValidation(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		errorMsg string
	}{
		{
			name:     "missing database password",
			envVars:  map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "secure-jwt-secret"},
			errorMsg: "database password is required in production",
		},
		{
			name:     "default JWT secret",
			envVars:  map[string]string{"ENVIRONMENT": "production", "DB_PASSWORD": "secure-db-password"},
			errorMsg: "JWT secret must be set in production",
		},
		{
			name:     "unknown driver",
			envVars:  map[string]string{"DB_DRIVER": "mysql"},
			errorMsg: `unsupported database driver "mysql"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setEnv(t, tt.envVars)

			_, err := LoadConfig()
			require.Error(t, err)
			assert.Equal(t, tt.errorMsg, err.Error())
		})
	}
}

func TestLoadConfig_SQLiteInProductionNeedsNoPassword(t *testing.T) {
	clearEnv(t)
	setEnv(t, map[string]string{
		"ENVIRONMENT": "production",
		"DB_DRIVER":   "SQLite",
		"DB_PATH":     "/var/lib/todos/todos.db",
		"JWT_SECRET":  "secure-jwt-secret",
	})

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", config.Database.Driver)
	assert.Equal(t, "/var/lib/todos/todos.db", config.GetDatabaseDSN())
}

func TestConfig_GetDatabaseDSN(t *testing.T) {
	config := &Config{
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
			SSLMode:  "require",
		},
	}
	assert.Equal(t, "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=require",
		config.GetDatabaseDSN())

	config.Database.DSN = "postgres://u:p@db/todos"
	assert.Equal(t, "postgres://u:p@db/todos", config.GetDatabaseDSN())
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		environment string
		expected    bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
		{"", false},
	}

	for _, test := range tests {
		config := &Config{Server: ServerConfig{Environment: test.environment}}
		if actual := config.IsProduction(); actual != test.expected {
			t.Errorf("For environment '%s', expected IsProduction() = %v, got %v",
				test.environment, test.expected, actual)
		}
	}
}

func TestGetEnvAsInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Unsetenv(key)
	assert.Equal(t, 42, getEnvAsInt(key, 42))

	t.Setenv(key, "100")
	assert.Equal(t, 100, getEnvAsInt(key, 42))

	t.Setenv(key, "not-a-number")
	assert.Equal(t, 42, getEnvAsInt(key, 42))
}

func TestGetEnvAsBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	testCases := []struct {
		value    string
		expected bool
	}{
		{"true", true},
		{"false", false},
		{"1", true},
		{"0", false},
		{"invalid", true},
		{"", true},
	}

	for _, tc := range testCases {
		t.Setenv(key, tc.value)
		if result := getEnvAsBool(key, true); result != tc.expected {
			t.Errorf("For value '%s', expected %v, got %v", tc.value, tc.expected, result)
		}
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"

	t.Setenv(key, "5m")
	assert.Equal(t, 5*time.Minute, getEnvAsDuration(key, time.Second))

	t.Setenv(key, "not-a-duration")
	assert.Equal(t, time.Second, getEnvAsDuration(key, time.Second))
}

func TestGetEnvAsList(t *testing.T) {
	key := "TEST_LIST_VAR"
	def := []string{"a"}

	t.Setenv(key, "")
	assert.Equal(t, def, getEnvAsList(key, def))

	t.Setenv(key, " , ,")
	assert.Equal(t, def, getEnvAsList(key, def))

	t.Setenv(key, "x, y ,z")
	assert.Equal(t, []string{"x", "y", "z"}, getEnvAsList(key, def))
}

func BenchmarkLoadConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := LoadConfig(); err != nil {
			b.Fatalf("Failed to load config: %v", err)
		}
	}
}
