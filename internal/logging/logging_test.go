package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := map[string]struct {
		level     string
		wantDebug bool
		wantWarn  bool
		wantErr   bool
	}{
		"debug":          {level: "debug", wantDebug: true, wantWarn: true},
		"warn":           {level: "warn", wantWarn: true},
		"error":          {level: "error"},
		"none":           {level: "none"},
		"case and space": {level: " INFO ", wantWarn: true},
		"unknown":        {level: "loud", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(tt.level, &buf)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "debug, info, warn, error, none")
				return
			}
			require.NoError(t, err)

			l.Debug("debug line", zap.String("file", "a.fix.md"))
			l.Warn("warn line")
			out := buf.String()

			assert.Equal(t, tt.wantDebug, bytes.Contains([]byte(out), []byte("debug line")))
			assert.Equal(t, tt.wantWarn, bytes.Contains([]byte(out), []byte("warn line")))
			if tt.wantDebug {
				assert.Contains(t, out, "DEBUG")
				assert.Contains(t, out, `{"file": "a.fix.md"}`)
			}
		})
	}
}

func TestDebugHook(t *testing.T) {
	var buf bytes.Buffer
	assert.Nil(t, DebugHook(MustNew("info", &buf)))
	assert.Nil(t, DebugHook(nil))

	hook := DebugHook(MustNew("debug", &buf))
	require.NotNil(t, hook)
	hook("[git] found %d tags", 3)
	assert.Contains(t, buf.String(), "[git] found 3 tags")
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() { MustNew("loud", &bytes.Buffer{}) })
}
