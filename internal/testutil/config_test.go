package testutil

import "testing"

func TestDefaultTestDBConfig_Defaults(t *testing.T) {
	// Empty values fall through to the defaults, and t.Setenv restores
	// whatever the surrounding environment had.
	for _, key := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
		t.Setenv(key, "")
	}

	cfg := DefaultTestDBConfig()

	want := TestDBConfig{
		Host:     "localhost",
		Port:     "55432",
		User:     "lodge",
		Password: "lodge",
		DBName:   "lodge",
	}
	if cfg != want {
		t.Errorf("DefaultTestDBConfig() = %+v, want %+v", cfg, want)
	}
}

func TestDefaultTestDBConfig_EnvOverrides(t *testing.T) {
	// CI points at the shared postgres service on the standard port.
	t.Setenv("TEST_DB_HOST", "postgres")
	t.Setenv("TEST_DB_PORT", "5432")
	t.Setenv("TEST_DB_USER", "ci")
	t.Setenv("TEST_DB_PASSWORD", "ci-secret")
	t.Setenv("TEST_DB_NAME", "lodge_test")

	cfg := DefaultTestDBConfig()

	want := TestDBConfig{
		Host:     "postgres",
		Port:     "5432",
		User:     "ci",
		Password: "ci-secret",
		DBName:   "lodge_test",
	}
	if cfg != want {
		t.Errorf("DefaultTestDBConfig() = %+v, want %+v", cfg, want)
	}
}
