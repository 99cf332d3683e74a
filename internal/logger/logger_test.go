package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogFilePathDefaultsToWorkdirLogs(t *testing.T) {
	tmp := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWD) })
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	got, err := logFilePath(Options{})
	if err != nil {
		t.Fatalf("logFilePath: %v", err)
	}
	realTmp, _ := filepath.EvalSymlinks(tmp)
	realDir, _ := filepath.EvalSymlinks(filepath.Dir(got))
	if realDir != filepath.Join(realTmp, defaultDirName) {
		t.Fatalf("log dir want %s got %s", filepath.Join(realTmp, defaultDirName), realDir)
	}
	if filepath.Base(got) != defaultFilename {
		t.Fatalf("log filename want %s got %s", defaultFilename, filepath.Base(got))
	}
}

func TestReleaseModeWritesJSONFile(t *testing.T) {
	tmp := t.TempDir()
	log := New("release", Options{Dir: tmp, Filename: "release.log"})
	log.Info("checkout_completed", zap.String("order_number", "VSO20260101ABCD"))
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmp, "release.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(content), `"event":"checkout_completed"`) {
		t.Fatalf("log line missing event key: %s", content)
	}
	if !strings.Contains(string(content), "VSO20260101ABCD") {
		t.Fatalf("log line missing field: %s", content)
	}
}

func TestDebugModeSkipsFile(t *testing.T) {
	tmp := t.TempDir()
	log := New("debug", Options{Dir: tmp, Filename: "debug.log"})
	log.Info("debug_only")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmp, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create a log file")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"":      "info",
		"warn":  "warn",
		"ERROR": "error",
		"bogus": "info",
	}
	for raw, want := range cases {
		if got := parseLevel(raw, false).String(); got != want {
			t.Fatalf("parseLevel(%q) want %s got %s", raw, want, got)
		}
	}
	if got := parseLevel("error", true).String(); got != "debug" {
		t.Fatalf("debug mode level want debug got %s", got)
	}
}
