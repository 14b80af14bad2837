// Package main provides an archive plugin that copies every saved frame
// into a second directory, optionally nested by user.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Config json.RawMessage `json:"config"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type archiveConfig struct {
	Dir    string `json:"dir"`
	ByUser bool   `json:"by_user"`
}

type frameSaved struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	User string `json:"user"`
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	if req.Action != "frame_saved" {
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	dest, err := archive(req.Config, req.Params)
	if err != nil {
		writeResponse(Response{Error: fmt.Sprintf("archive failed: %v", err)})
		return
	}

	data, _ := json.Marshal(map[string]string{"archived": dest})
	writeResponse(Response{Success: true, Data: data})
}

func archive(rawConfig, rawParams json.RawMessage) (string, error) {
	var cfg archiveConfig
	if len(rawConfig) > 0 {
		if err := json.Unmarshal(rawConfig, &cfg); err != nil {
			return "", fmt.Errorf("invalid config: %w", err)
		}
	}
	if cfg.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cfg.Dir = filepath.Join(home, "Pictures", "aircanvas")
	}

	var frame frameSaved
	if err := json.Unmarshal(rawParams, &frame); err != nil {
		return "", fmt.Errorf("invalid params: %w", err)
	}
	if frame.Path == "" {
		return "", fmt.Errorf("path is required")
	}

	dir := cfg.Dir
	if cfg.ByUser && frame.User != "" {
		dir = filepath.Join(dir, frame.User)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	dest := filepath.Join(dir, filepath.Base(frame.Path))
	return dest, copyFile(frame.Path, dest)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
