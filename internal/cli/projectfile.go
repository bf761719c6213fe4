// Package cli implements estimatectl, an offline tool that prices, searches
// and syncs a project exported to a JSON or YAML file.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/av-estimator/engine/internal/estimate"
)

const lockRetry = 50 * time.Millisecond

// ProjectFile is the exported shape of one project: its location tree and
// the package definitions it can reference.
type ProjectFile struct {
	Locations       []estimate.Location          `json:"locations"`
	CatalogPackages []estimate.PackageDefinition `json:"catalogPackages"`
	ProjectPackages []estimate.PackageDefinition `json:"projectPackages"`
}

func (p *ProjectFile) Forest() estimate.Forest {
	return estimate.Forest{Roots: p.Locations}
}

func (p *ProjectFile) Definitions(precedence estimate.Precedence) estimate.Definitions {
	return estimate.Definitions{Catalog: p.CatalogPackages, Project: p.ProjectPackages, Precedence: precedence}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// LoadProjectFile reads path. YAML is normalized through JSON so numeric
// fields get the same lenient decoding either way.
func LoadProjectFile(path string) (*ProjectFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	if isYAML(path) {
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		if raw, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("normalize yaml: %w", err)
		}
	}
	var pf ProjectFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse project file: %w", err)
	}
	if err := pf.Forest().Validate(); err != nil {
		return nil, err
	}
	return &pf, nil
}

// WithLockedFile runs fn while holding an exclusive lock on path+".lock",
// retrying until ctx is done. A read-modify-write of a project file must run
// entirely inside fn.
func WithLockedFile(ctx context.Context, path string, fn func() error) error {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock project file: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock project file: %s is busy", path)
	}
	defer func() { _ = lock.Unlock() }()
	return fn()
}

// SaveProjectFile writes pf to path in the format its extension names, under
// the file lock. The file is replaced by rename so readers never see a
// partial document.
func SaveProjectFile(ctx context.Context, path string, pf *ProjectFile) error {
	return WithLockedFile(ctx, path, func() error {
		return writeProjectFile(path, pf)
	})
}

// writeProjectFile expects the caller to hold the file lock.
func writeProjectFile(path string, pf *ProjectFile) error {
	out, err := encodeProjectFile(path, pf)
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write project file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write project file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("write project file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write project file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

func encodeProjectFile(path string, pf *ProjectFile) ([]byte, error) {
	js, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode project file: %w", err)
	}
	if !isYAML(path) {
		return append(js, '\n'), nil
	}
	var doc any
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, fmt.Errorf("encode project file: %w", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode project file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode project file: %w", err)
	}
	return buf.Bytes(), nil
}
