package install

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
)

// Options locates everything the one-time bootstrap touches. Paths are
// explicit so tests (and unusual distros) can redirect them; zero values get
// the conventional locations via Defaults.
type Options struct {
	BinaryPath  string // installed daemon binary
	GroupName   string // group allowed to run rtcwake without a password
	RTCWakePath string // absolute path of rtcwake for elevation rules
	DoasConf    string
	SudoersFile string
	SystemdDir  string
	OpenRCDir   string

	// run executes a privileged helper command; replaceable in tests.
	run func(name string, args ...string) error
}

func Defaults() Options {
	return Options{
		BinaryPath:  "/usr/local/bin/portald",
		GroupName:   "portald",
		RTCWakePath: "/usr/sbin/rtcwake",
		DoasConf:    "/etc/doas.conf",
		SudoersFile: "/etc/sudoers.d/portald",
		SystemdDir:  "/etc/systemd/system",
		OpenRCDir:   "/etc/init.d",
		run: func(name string, args ...string) error {
			// #nosec G204 -- fixed system administration binaries
			return exec.Command(name, args...).Run()
		},
	}
}

func (o Options) runner() func(string, ...string) error {
	if o.run != nil {
		return o.run
	}
	return Defaults().run
}

// EnsureElevationRule grants the configured group passwordless rtcwake via
// whichever elevation mechanism the host uses: a doas.conf rule when that
// file exists, a validated sudoers drop-in otherwise.
func (o Options) EnsureElevationRule() error {
	if _, err := os.Stat(o.DoasConf); err == nil {
		return o.ensureDoasRule()
	}
	return o.writeSudoersRule()
}

func doasRule(group, rtcwake string) string {
	return fmt.Sprintf("permit nopass :%s cmd %s", group, rtcwake)
}

func (o Options) ensureDoasRule() error {
	rule := doasRule(o.GroupName, o.RTCWakePath)
	b, err := os.ReadFile(o.DoasConf)
	if err != nil {
		return fmt.Errorf("read %s: %w", o.DoasConf, err)
	}
	content := string(b)
	if containsLine(content, rule) {
		return nil
	}
	if !strings.HasSuffix(content, "\n") && content != "" {
		content += "\n"
	}
	content += rule + "\n"
	if err := os.WriteFile(o.DoasConf, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", o.DoasConf, err)
	}
	return nil
}

func sudoersRule(group, rtcwake string) string {
	return fmt.Sprintf("%%%s ALL=(root) NOPASSWD: %s\n", group, rtcwake)
}

// writeSudoersRule stages the drop-in next to its destination, validates it
// with visudo, then renames it into place with sudoers permissions.
func (o Options) writeSudoersRule() error {
	dir := filepath.Dir(o.SudoersFile)
	tmp, err := os.CreateTemp(dir, ".portald-sudoers-*")
	if err != nil {
		return fmt.Errorf("stage sudoers rule: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()
	if _, err := tmp.WriteString(sudoersRule(o.GroupName, o.RTCWakePath)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("stage sudoers rule: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := o.runner()("visudo", "-c", "-f", tmpPath); err != nil {
		return fmt.Errorf("sudoers rule failed validation: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o440); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, o.SudoersFile); err != nil {
		return fmt.Errorf("install sudoers rule: %w", err)
	}
	return nil
}

// EnsureGroup creates the elevation group if absent and adds user to it.
func (o Options) EnsureGroup(user string) error {
	if err := o.runner()("groupadd", "-f", o.GroupName); err != nil {
		return fmt.Errorf("create group %s: %w", o.GroupName, err)
	}
	if user == "" {
		return nil
	}
	if err := o.runner()("usermod", "-aG", o.GroupName, user); err != nil {
		return fmt.Errorf("add %s to group %s: %w", user, o.GroupName, err)
	}
	return nil
}

var systemdUnit = template.Must(template.New("unit").Parse(`[Unit]
Description=portald (lighthouse sleep manager)
After=network.target

[Service]
ExecStart={{.BinaryPath}} run
Restart=always
User=root
Group=root

[Install]
WantedBy=multi-user.target
`))

var openrcScript = template.Must(template.New("openrc").Parse(`#!/sbin/openrc-run

name="portald"
description="portald (lighthouse sleep manager)"
command="{{.BinaryPath}}"
command_args="run"
command_background=true
pidfile="/run/portald.pid"

depend() {
	need net
}
`))

// InstallService writes the service definition for the detected init system
// and enables it. Systemd is assumed when its runtime directory exists;
// OpenRC otherwise.
func (o Options) InstallService() error {
	if o.systemdPresent() {
		return o.installSystemd()
	}
	return o.installOpenRC()
}

func (o Options) systemdPresent() bool {
	if _, err := os.Stat("/run/systemd/system"); err == nil {
		return true
	}
	_, err := os.Stat("/usr/lib/systemd")
	return err == nil
}

func (o Options) installSystemd() error {
	path := filepath.Join(o.SystemdDir, "portald.service")
	var sb strings.Builder
	if err := systemdUnit.Execute(&sb, o); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	run := o.runner()
	if err := run("systemctl", "daemon-reload"); err != nil {
		return fmt.Errorf("systemctl daemon-reload: %w", err)
	}
	if err := run("systemctl", "enable", "--now", "portald"); err != nil {
		return fmt.Errorf("systemctl enable portald: %w", err)
	}
	return nil
}

func (o Options) installOpenRC() error {
	path := filepath.Join(o.OpenRCDir, "portald")
	var sb strings.Builder
	if err := openrcScript.Execute(&sb, o); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o755); err != nil { // #nosec G306 -- init scripts must be executable
		return fmt.Errorf("write %s: %w", path, err)
	}
	run := o.runner()
	if err := run("rc-update", "add", "portald", "default"); err != nil {
		return fmt.Errorf("rc-update add portald: %w", err)
	}
	if err := run("rc-service", "portald", "start"); err != nil {
		return fmt.Errorf("rc-service portald start: %w", err)
	}
	return nil
}

// CopyBinary installs the currently running executable at BinaryPath.
func (o Options) CopyBinary() error {
	src, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	b, err := os.ReadFile(src) // #nosec G304 -- path comes from the OS
	if err != nil {
		return fmt.Errorf("read executable: %w", err)
	}
	if err := os.WriteFile(o.BinaryPath, b, 0o755); err != nil { // #nosec G306 -- binary must be executable
		return fmt.Errorf("install binary: %w", err)
	}
	return nil
}

func containsLine(content, line string) bool {
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == line {
			return true
		}
	}
	return false
}
