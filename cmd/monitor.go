package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/ghlc/internal/cli"
	"github.com/theirongolddev/ghlc/internal/config"
	"github.com/theirongolddev/ghlc/internal/monitor"
)

type monitorRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	BaseURL   string    `json:"base_url"`
}

var (
	flagMonitorAddr         string
	flagMonitorInterval     time.Duration
	flagMonitorDetach       bool
	flagMonitorPIDFile      string
	flagMonitorLogFile      string
	flagMonitorEventsBuffer int
	flagMonitorChild        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Poll the quota endpoint and serve it over HTTP/SSE",
	RunE:  runMonitor,
}

var monitorStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show monitor process and API status",
	RunE:  runMonitorStatus,
}

var monitorStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running monitor",
	RunE:  runMonitorStop,
}

func init() {
	defaults := config.DefaultConfig().Monitor
	defaultPID := filepath.Join(config.StateDir(), "ghlc-monitor.pid")
	defaultLog := filepath.Join(config.StateDir(), "ghlc-monitor.out")

	monitorCmd.PersistentFlags().StringVar(&flagMonitorAddr, "addr", "", "HTTP listen address (default from config, "+defaults.Addr+")")
	monitorCmd.PersistentFlags().DurationVar(&flagMonitorInterval, "interval", 0, "Polling interval (default from config)")
	monitorCmd.PersistentFlags().StringVar(&flagMonitorPIDFile, "pid-file", defaultPID, "PID file path")
	monitorCmd.PersistentFlags().StringVar(&flagMonitorLogFile, "log-file", defaultLog, "Output file for detached mode")
	monitorCmd.PersistentFlags().IntVar(&flagMonitorEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	monitorCmd.Flags().BoolVar(&flagMonitorDetach, "detach", false, "Run the monitor as a background process")
	monitorCmd.Flags().BoolVar(&flagMonitorChild, "child", false, "Internal: mark detached child process")
	_ = monitorCmd.Flags().MarkHidden("child")

	monitorCmd.AddCommand(monitorStatusCmd)
	monitorCmd.AddCommand(monitorStopCmd)
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	if flagMonitorDetach && flagMonitorChild {
		return errors.New("invalid monitor launch mode")
	}

	if flagMonitorDetach {
		return startMonitorDetached()
	}

	return runMonitorForeground(cmd.Context())
}

// monitorAddr resolves the listen address from flags, then config.
func monitorAddr() string {
	if flagMonitorAddr != "" {
		return flagMonitorAddr
	}
	if cfg, err := config.Load(); err == nil && cfg.Monitor.Addr != "" {
		return cfg.Monitor.Addr
	}
	return config.DefaultConfig().Monitor.Addr
}

func startMonitorDetached() error {
	if err := ensureMonitorNotRunning(flagMonitorPIDFile); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := filterDetachArg(os.Args[1:])
	args = append(args, "--child")

	if err := os.MkdirAll(filepath.Dir(flagMonitorPIDFile), 0o750); err != nil {
		return fmt.Errorf("create monitor directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagMonitorLogFile), 0o750); err != nil {
		return fmt.Errorf("create monitor log directory: %w", err)
	}

	//nolint:gosec // monitor output path is configured by the local user
	logf, err := os.OpenFile(flagMonitorLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open monitor output file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	cmd := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	cmd.Stdout = logf
	cmd.Stderr = logf
	cmd.Stdin = nil
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start detached monitor: %w", err)
	}

	fmt.Printf("  Started monitor (pid %d)\n", cmd.Process.Pid)
	fmt.Printf("  PID file: %s\n", flagMonitorPIDFile)
	fmt.Printf("  API: http://%s/v1/status\n", monitorAddr())
	fmt.Printf("  Output: %s\n", flagMonitorLogFile)
	return nil
}

func runMonitorForeground(ctx context.Context) error {
	if err := ensureMonitorNotRunning(flagMonitorPIDFile); err != nil {
		return err
	}

	a, err := newApp(appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	mcfg := monitor.Config{
		Addr:         a.cfg.Monitor.Addr,
		Interval:     a.cfg.Monitor.Interval(),
		EventsBuffer: a.cfg.Monitor.EventsBuffer,
	}
	if flagMonitorAddr != "" {
		mcfg.Addr = flagMonitorAddr
	}
	if flagMonitorInterval > 0 {
		mcfg.Interval = flagMonitorInterval
	}
	if flagMonitorEventsBuffer > 0 {
		mcfg.EventsBuffer = flagMonitorEventsBuffer
	}

	if err := os.MkdirAll(filepath.Dir(flagMonitorPIDFile), 0o750); err != nil {
		return fmt.Errorf("create monitor directory: %w", err)
	}

	pid := os.Getpid()
	if err := writePID(flagMonitorPIDFile, pid); err != nil {
		return err
	}
	defer func() { _ = os.Remove(flagMonitorPIDFile) }()

	state := monitorRuntimeState{
		PID:       pid,
		Addr:      mcfg.Addr,
		StartedAt: time.Now(),
		BaseURL:   a.sess.BaseURL(),
	}
	_ = writeState(statePath(flagMonitorPIDFile), state)
	defer func() { _ = os.Remove(statePath(flagMonitorPIDFile)) }()

	svc := monitor.New(mcfg, a.sess, monitor.WithLogger(a.logger), monitor.WithMetrics(a.metrics))

	info("  ghlc monitor listening on http://%s\n", mcfg.Addr)
	info("  Polling %s every %s\n", a.sess.BaseURL(), mcfg.Interval)
	info("  Stop with: ghlc monitor stop --pid-file %s\n", flagMonitorPIDFile)
	a.logger.Info("monitor started",
		zap.String("addr", mcfg.Addr),
		zap.Duration("interval", mcfg.Interval),
		zap.String("base_url", a.sess.BaseURL()))

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runMonitorStatus(_ *cobra.Command, _ []string) error {
	pid, err := readPID(flagMonitorPIDFile)
	if err != nil {
		fmt.Printf("  Monitor: not running (pid file not found)\n")
		return nil
	}

	alive := processAlive(pid)
	if !alive {
		fmt.Printf("  Monitor: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := monitorAddr()
	if st, err := readState(statePath(flagMonitorPIDFile)); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	fmt.Printf("  Monitor PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status probe
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st monitorStatusView
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	if st.LastPollAt.IsZero() {
		fmt.Printf("  Last poll: pending\n")
	} else {
		fmt.Printf("  Last poll: %s\n", st.LastPollAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Poll count: %d\n", st.PollCount)
	fmt.Printf("  Backend: %s\n", st.BaseURL)
	fmt.Printf("  Quota: %s  %s (%s)\n", st.Level, cli.FormatRatio(st.Quota.Remaining, st.Quota.Limit), st.Message)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runMonitorStop(_ *cobra.Command, _ []string) error {
	pid, err := readPID(flagMonitorPIDFile)
	if err != nil {
		return errors.New("monitor is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find monitor process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal monitor process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			_ = os.Remove(flagMonitorPIDFile)
			_ = os.Remove(statePath(flagMonitorPIDFile))
			fmt.Printf("  Stopped monitor (pid %d)\n", pid)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}

	return fmt.Errorf("monitor (pid %d) did not exit in time", pid)
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func ensureMonitorNotRunning(pidFile string) error {
	pid, err := readPID(pidFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if processAlive(pid) {
		return fmt.Errorf("monitor already running (pid %d)", pid)
	}
	_ = os.Remove(pidFile)
	_ = os.Remove(statePath(pidFile))
	return nil
}

func writePID(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

func readPID(path string) (int, error) {
	//nolint:gosec // monitor pid path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", path)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func statePath(pidFile string) string {
	return pidFile + ".json"
}

func writeState(path string, st monitorRuntimeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func readState(path string) (monitorRuntimeState, error) {
	var st monitorRuntimeState
	//nolint:gosec // monitor state path is configured by the local user
	data, err := os.ReadFile(path)
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, err
	}
	return st, nil
}

// monitorStatusView is the subset of /v1/status the status command prints.
// Level arrives as its name.
type monitorStatusView struct {
	LastPollAt time.Time `json:"last_poll_at"`
	PollCount  int64     `json:"poll_count"`
	BaseURL    string    `json:"base_url"`
	Level      string    `json:"level"`
	Message    string    `json:"message"`
	Quota      struct {
		Remaining int64 `json:"remaining"`
		Limit     int64 `json:"limit"`
	} `json:"quota"`
	LastError string `json:"last_error"`
}
