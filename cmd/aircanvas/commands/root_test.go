package commands

import (
	"bufio"
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/aircanvas/internal/config"
	"github.com/ayusman/aircanvas/internal/store"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath = ""
		savesOutput, savesSession, savesLimit = "default", "", 20
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

// isolate points the catalog and plugin dir at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AIRCANVAS_STORE_PATH", filepath.Join(dir, "aircanvas.db"))
	t.Setenv("AIRCANVAS_PLUGINS_DIR", filepath.Join(dir, "plugins"))
	t.Setenv("AIRCANVAS_SESSION_SAVE_DIR", filepath.Join(dir, "saves"))
	return dir
}

func TestRootCommand_ShowsHelpWhenNoSubcommand(t *testing.T) {
	out, err := execute(t)

	assert.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "aircanvas")
	for _, sub := range []string{"run", "saves", "sessions", "config", "plugins"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCommand_RejectsUnknownFlags(t *testing.T) {
	_, err := execute(t, "--unknown-flag", "value")
	assert.Error(t, err)
}

func TestConfigCommand_RoundTrips(t *testing.T) {
	dir := isolate(t)
	t.Setenv("AIRCANVAS_BRUSH_THICKNESS", "9")

	out, err := execute(t, "config")
	require.NoError(t, err)

	cfg := config.Default()
	require.NoError(t, yaml.Unmarshal([]byte(out), cfg))
	assert.Equal(t, 9, cfg.Brush.Thickness)
	assert.Equal(t, filepath.Join(dir, "aircanvas.db"), cfg.Store.Path)
	assert.Equal(t, 5*time.Second, cfg.Plugins.Timeout)
}

func TestConfigCommand_InvalidFile(t *testing.T) {
	_, err := execute(t, "config", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.EqualError(t, err, "Invalid configuration")
}

func TestSavesCommand_JSONL(t *testing.T) {
	dir := isolate(t)

	st, err := store.New(filepath.Join(dir, "aircanvas.db"))
	require.NoError(t, err)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, st.Saves().Create(&store.Save{ID: "old", Path: "/tmp/old.png", Kind: store.SaveComposite, CreatedAt: base}))
	require.NoError(t, st.Saves().Create(&store.Save{ID: "new", Path: "/tmp/new.png", Kind: store.SaveAuto, CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, st.Close())

	out, err := execute(t, "saves", "-o", "jsonl")
	require.NoError(t, err)

	var ids []string
	sc := bufio.NewScanner(bytes.NewBufferString(out))
	for sc.Scan() {
		var sv store.Save
		require.NoError(t, json.Unmarshal(sc.Bytes(), &sv))
		ids = append(ids, sv.ID)
	}
	assert.Equal(t, []string{"new", "old"}, ids)
}

func TestSavesCommand_BadOutput(t *testing.T) {
	isolate(t)
	_, err := execute(t, "saves", "-o", "xml")
	assert.EqualError(t, err, "Invalid output format")
}

func TestSavesRm(t *testing.T) {
	dir := isolate(t)

	st, err := store.New(filepath.Join(dir, "aircanvas.db"))
	require.NoError(t, err)
	require.NoError(t, st.Saves().Create(&store.Save{ID: "gone", Path: filepath.Join(dir, "gone.png"), Kind: store.SaveComposite}))
	require.NoError(t, st.Close())

	_, err = execute(t, "saves", "rm", "gone", "missing")
	assert.EqualError(t, err, "1 of 2 saves not deleted")

	st, err = store.New(filepath.Join(dir, "aircanvas.db"))
	require.NoError(t, err)
	defer st.Close()
	_, err = st.Saves().GetByID("gone")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestApplyRunFlags(t *testing.T) {
	t.Cleanup(func() {
		runUser, runAddr, runNoServer, runAuto = "", "", false, 0
		for _, name := range []string{"user", "addr", "no-server", "auto-capture"} {
			runCmd.Flags().Lookup(name).Changed = false
		}
	})
	require.NoError(t, runCmd.Flags().Set("user", "ann"))
	require.NoError(t, runCmd.Flags().Set("addr", ":9000"))
	require.NoError(t, runCmd.Flags().Set("no-server", "true"))
	require.NoError(t, runCmd.Flags().Set("auto-capture", "30s"))

	cfg := config.Default()
	device := cfg.Camera.DeviceID
	applyRunFlags(runCmd, cfg)

	assert.Equal(t, "ann", cfg.Session.User)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.False(t, cfg.Server.Enabled)
	assert.True(t, cfg.Session.AutoCapture)
	assert.Equal(t, 30*time.Second, cfg.Session.AutoCaptureInterval)
	assert.Equal(t, device, cfg.Camera.DeviceID, "unset flags leave config alone")
}
