package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/adanyl0v/daily-todo/internal/models"
)

// OllamaChecker probes an Ollama-compatible server through its model
// listing endpoint.
type OllamaChecker struct {
	client         *http.Client
	baseURL        string
	binary         string
	preferredModel string
	lookPath       func(file string) (string, error)
}

func NewOllamaChecker(baseURL, binary, preferredModel string, timeout time.Duration) *OllamaChecker {
	return &OllamaChecker{
		client:         &http.Client{Timeout: timeout},
		baseURL:        strings.TrimRight(baseURL, "/"),
		binary:         binary,
		preferredModel: preferredModel,
		lookPath:       exec.LookPath,
	}
}

type ollamaTagsResponse struct {
	Models []struct {
		Name  string `json:"name"`
		Model string `json:"model"`
	} `json:"models"`
}

func (c *OllamaChecker) CheckAvailability(ctx context.Context) (models.AssistantSnapshot, error) {
	snapshot := models.AssistantSnapshot{
		IsInstalled: c.installed(),
		Models:      []string{},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return snapshot, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return snapshot, fmt.Errorf("assistant unreachable: %w", err)
	}
	defer resp.Body.Close()
	snapshot.IsInstalled = true

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return snapshot, fmt.Errorf("assistant responded with status %d", resp.StatusCode)
	}

	var body ollamaTagsResponse
	err = json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		return snapshot, fmt.Errorf("failed to decode model list: %w", err)
	}

	for _, m := range body.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		if name != "" {
			snapshot.Models = append(snapshot.Models, name)
		}
	}
	snapshot.IsAvailable = true
	snapshot.PreferredModel = pickModel(c.preferredModel, snapshot.Models)
	return snapshot, nil
}

func (c *OllamaChecker) installed() bool {
	if c.binary == "" || c.lookPath == nil {
		return false
	}
	_, err := c.lookPath(c.binary)
	return err == nil
}

// pickModel prefers the configured model when the server lists it,
// falling back to the first listed one.
func pickModel(preferred string, available []string) string {
	if preferred != "" && slices.Contains(available, preferred) {
		return preferred
	}
	if len(available) > 0 {
		return available[0]
	}
	return ""
}
