package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMinimal(t *testing.T) {
	path := writeConfig(t, `
[lighthouse]
target = "192.168.1.1"
`)
	fc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Lighthouse.Target != "192.168.1.1" {
		t.Fatalf("target %q", fc.Lighthouse.Target)
	}
	// defaults
	if fc.Lighthouse.PollIntervalSec != DefaultPollIntervalSec {
		t.Fatalf("poll default %d", fc.Lighthouse.PollIntervalSec)
	}
	if fc.Pause.File != DefaultPauseFile {
		t.Fatalf("pause file default %q", fc.Pause.File)
	}
	if fc.Daemon.PIDFile != DefaultPIDFile {
		t.Fatalf("pidfile default %q", fc.Daemon.PIDFile)
	}
	if fc.Language != "en" {
		t.Fatalf("language default %q", fc.Language)
	}
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
language = "ru"

[lighthouse]
target = "10.0.0.1:22"
probe = "tcp"
poll_interval_sec = 15
grace_period_sec = 120
sleep_minutes = 45
wake_settle_sec = 20

[pause]
file = "/tmp/test.pause"

[daemon]
pidfile = "/tmp/test.pid"

[server]
enabled = true
listen = "127.0.0.1:8484"
base_path = "/api"

[metrics]
enabled = true
listen = ":9321"
`)
	fc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rc := fc.RunConfig()
	if rc.PollInterval != 15*time.Second || rc.GracePeriod != 120*time.Second {
		t.Fatalf("durations: %+v", rc)
	}
	if rc.SuspendFor != 45*time.Minute {
		t.Fatalf("suspend for %v", rc.SuspendFor)
	}
	if rc.WakeSettle != 20*time.Second {
		t.Fatalf("wake settle %v", rc.WakeSettle)
	}
	if fc.Server == nil || !fc.Server.Enabled || fc.Server.Listen != "127.0.0.1:8484" {
		t.Fatalf("server config: %+v", fc.Server)
	}
	if fc.Metrics == nil || !fc.Metrics.Enabled {
		t.Fatalf("metrics config: %+v", fc.Metrics)
	}
	if p := fc.Prober(); p.Describe() != "tcp:10.0.0.1:22" {
		t.Fatalf("prober %q", p.Describe())
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatalf("expected error for missing config")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "this is not toml = = =")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed config")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing target": `
[lighthouse]
poll_interval_sec = 10
`,
		"bad probe": `
[lighthouse]
target = "192.168.1.1"
probe = "icmp6-magic"
`,
		"zero poll": `
[lighthouse]
target = "192.168.1.1"
poll_interval_sec = 0
`,
		"negative grace": `
[lighthouse]
target = "192.168.1.1"
grace_period_sec = -5
`,
		"zero sleep": `
[lighthouse]
target = "192.168.1.1"
sleep_minutes = 0
`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	fc := &FileConfig{
		Language: "en",
		Lighthouse: LighthouseConfig{
			Target:          "192.168.1.1",
			Probe:           "ping",
			PollIntervalSec: 30,
			GracePeriodSec:  300,
			SleepMinutes:    60,
			WakeSettleSec:   30,
		},
		Server: &ServerConfig{Enabled: true, Listen: "127.0.0.1:8484", BasePath: "/api"},
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := fc.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load saved config: %v", err)
	}
	if got.Lighthouse.Target != fc.Lighthouse.Target {
		t.Fatalf("target %q", got.Lighthouse.Target)
	}
	if got.Lighthouse.PollIntervalSec != 30 {
		t.Fatalf("poll %d", got.Lighthouse.PollIntervalSec)
	}
	if got.Server == nil || got.Server.Listen != "127.0.0.1:8484" {
		t.Fatalf("server %+v", got.Server)
	}
}

func TestServerBasePathDefault(t *testing.T) {
	path := writeConfig(t, `
[lighthouse]
target = "192.168.1.1"

[server]
enabled = true
listen = "127.0.0.1:8484"
`)
	fc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Server == nil || fc.Server.BasePath != DefaultBasePath {
		t.Fatalf("server base path %+v, want default %q", fc.Server, DefaultBasePath)
	}

	path = writeConfig(t, `
[lighthouse]
target = "192.168.1.1"

[server]
enabled = true
listen = "127.0.0.1:8484"
base_path = "/control"
`)
	fc, err = Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Server.BasePath != "/control" {
		t.Fatalf("explicit base path not preserved: %q", fc.Server.BasePath)
	}
}

func TestDefaultProberIsPing(t *testing.T) {
	fc := &FileConfig{Lighthouse: LighthouseConfig{Target: "192.168.1.1"}}
	if p := fc.Prober(); p.Describe() != "ping:192.168.1.1" {
		t.Fatalf("prober %q", p.Describe())
	}
}
