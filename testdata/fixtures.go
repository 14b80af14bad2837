// Package testdata builds synthetic camera frames, hand tracks and plugins
// for tests that span several packages.
package testdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/detector"
)

// Frames returns n BGR frames whose blue channel steps with the index, so
// consecutive frames differ enough to pass a motion gate.
func Frames(n, width, height int) []*gocv.Mat {
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(i*12%256), 90, 40, 0), height, width, gocv.MatTypeCV8UC3)
		frames[i] = &m
	}
	return frames
}

// CloseAll releases frames returned by Frames.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}

// Stroke returns n copies of hand, each shifted step normalized units to
// the right of the previous one and projected onto a width x height frame.
func Stroke(hand detector.HandLandmarks, n int, step float64, width, height int) [][]detector.HandLandmarks {
	track := make([][]detector.HandLandmarks, n)
	for i := range track {
		track[i] = []detector.HandLandmarks{hand.Translate(float64(i)*step, 0, width, height)}
	}
	return track
}

// WriteImage writes a solid width x height PNG to dir/name and returns its
// path.
func WriteImage(dir, name string, width, height int, bgr gocv.Scalar) (string, error) {
	m := gocv.NewMatWithSizeFromScalar(bgr, height, width, gocv.MatTypeCV8UC3)
	defer m.Close()

	path := filepath.Join(dir, name)
	if ok := gocv.IMWrite(path, m); !ok {
		return "", fmt.Errorf("write image %s", path)
	}
	return path, nil
}

// WriteRecorderPlugin installs a shell plugin under pluginDir that appends
// every request it receives to out, one JSON document per line.
func WriteRecorderPlugin(pluginDir, name, out string, actions ...string) error {
	dir := filepath.Join(pluginDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	manifest, err := json.Marshal(map[string]any{
		"name":       name,
		"version":    "1.0.0",
		"executable": "run.sh",
		"actions":    actions,
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), manifest, 0o644); err != nil {
		return err
	}

	script := fmt.Sprintf("#!/bin/sh\ninput=$(cat)\nprintf '%%s\\n' \"$input\" >> %q\necho '{\"success\":true}'\n", out)
	return os.WriteFile(filepath.Join(dir, "run.sh"), []byte(script), 0o755)
}
