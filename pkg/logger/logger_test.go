package logger

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		logFile string
		wantErr bool
	}{
		{
			name:    "init with debug level, no file",
			level:   "debug",
			logFile: "",
			wantErr: false,
		},
		{
			name:    "init with warn level, no file",
			level:   "warn",
			logFile: "",
			wantErr: false,
		},
		{
			name:    "init with invalid level defaults to info",
			level:   "invalid",
			logFile: "",
			wantErr: false,
		},
		{
			name:    "init with log file",
			level:   "info",
			logFile: filepath.Join(t.TempDir(), "test.log"),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Log = nil

			err := Init(tt.level, tt.logFile)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && Log == nil {
				t.Error("Init() succeeded but Log is nil")
			}

			if Log != nil {
				_ = Log.Sync()
			}

			if tt.logFile != "" {
				_ = os.Remove(tt.logFile)
			}
		})
	}
}

func TestNamed(t *testing.T) {
	Log = nil
	if Named("archiver") == nil {
		t.Error("Named() with nil global returned nil, want nop logger")
	}

	Log, _ = zap.NewDevelopment()
	if Named("archiver") == nil {
		t.Error("Named() returned nil")
	}
	_ = Sync()
}

func TestSync(t *testing.T) {
	Log = nil
	// Sync with a nil logger must not panic.
	_ = Sync()

	Log, _ = zap.NewDevelopment()
	_ = Sync()
}
