package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.PortCount != DefaultPortCount {
		t.Errorf("PortCount = %d", cfg.PortCount)
	}
	if cfg.LockTimeout != DefaultLockTimeout || cfg.XferTimeout != DefaultXferTimeout {
		t.Errorf("timeouts = %v/%v", cfg.LockTimeout, cfg.XferTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("I2C_PORT_COUNT", "4")
	t.Setenv("I2C_LOCK_TIMEOUT_MS", "250")
	t.Setenv("I2C_XFER_TIMEOUT_MS", "750")

	cfg := Load()
	if cfg.PortCount != 4 {
		t.Errorf("PortCount = %d, want 4", cfg.PortCount)
	}
	if cfg.LockTimeout != 250*time.Millisecond {
		t.Errorf("LockTimeout = %v", cfg.LockTimeout)
	}
	if cfg.XferTimeout != 750*time.Millisecond {
		t.Errorf("XferTimeout = %v", cfg.XferTimeout)
	}
}

func TestLoadIgnoresGarbage(t *testing.T) {
	t.Setenv("I2C_PORT_COUNT", "lots")
	t.Setenv("I2C_LOCK_TIMEOUT_MS", "-5")

	cfg := Load()
	if cfg.PortCount != DefaultPortCount {
		t.Errorf("PortCount = %d, want default", cfg.PortCount)
	}
	if cfg.LockTimeout != DefaultLockTimeout {
		t.Errorf("LockTimeout = %v, want default", cfg.LockTimeout)
	}
}
