// Package repository persists contract deployment metadata on disk.
package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/scopevm/vm/core"
)

const metadataFile = "metadata.json"

// Manager records one metadata document per deployed contract under a root
// directory.
type Manager struct {
	rootDir string
}

// ContractMetadata describes one deployment
type ContractMetadata struct {
	Name       string    `json:"name"`        // contract name
	Functions  []string  `json:"functions"`   // exported wire-level function names
	Hash       string    `json:"hash"`        // hash over name and functions
	DeployTime time.Time `json:"deploy_time"` // time of deployment
}

// NewManager creates a metadata manager rooted at rootDir.
func NewManager(rootDir string) (*Manager, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		slog.Error("failed to create root directory", "dir", rootDir, "error", err)
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}

	return &Manager{
		rootDir: rootDir,
	}, nil
}

// RegisterContract records a new deployment. Fails when the contract is
// already recorded.
func (m *Manager) RegisterContract(name core.Identity, functions []core.FunctionName) error {
	contractDir := m.contractDir(name)
	if _, err := os.Stat(contractDir); err == nil {
		return fmt.Errorf("contract already exists: %s", name)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check contract directory: %w", err)
	}

	if err := os.MkdirAll(contractDir, 0755); err != nil {
		return fmt.Errorf("failed to create contract directory: %w", err)
	}

	fns := make([]string, len(functions))
	for i, fn := range functions {
		fns[i] = fn.String()
	}

	meta := &ContractMetadata{
		Name:       name.String(),
		Functions:  fns,
		Hash:       metadataHash(name, fns),
		DeployTime: time.Now(),
	}

	if err := m.saveMetadata(meta); err != nil {
		os.RemoveAll(contractDir)
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	return nil
}

// GetMetadata loads the metadata of a recorded contract.
func (m *Manager) GetMetadata(name core.Identity) (*ContractMetadata, error) {
	data, err := os.ReadFile(filepath.Join(m.contractDir(name), metadataFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta ContractMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &meta, nil
}

// ListContracts returns the names of all recorded contracts.
func (m *Manager) ListContracts() ([]core.Identity, error) {
	entries, err := os.ReadDir(m.rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read root directory: %w", err)
	}

	var names []core.Identity
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, core.Identity(entry.Name()))
		}
	}
	return names, nil
}

func (m *Manager) contractDir(name core.Identity) string {
	return filepath.Join(m.rootDir, name.String())
}

func (m *Manager) saveMetadata(meta *ContractMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	path := filepath.Join(m.rootDir, meta.Name, metadataFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

func metadataHash(name core.Identity, functions []string) string {
	h := sha256.New()
	h.Write([]byte(name.String()))
	for _, fn := range functions {
		h.Write([]byte{0})
		h.Write([]byte(fn))
	}
	return hex.EncodeToString(h.Sum(nil))
}
