package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/arbor/pkg/adapters/file"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/project"
	"github.com/aretw0/arbor/pkg/record"
	"github.com/aretw0/arbor/pkg/schema"
	"github.com/aretw0/arbor/pkg/session"
)

// Document is a project file opened for editing from the command line.
// The file's directory acts as a file store and its base name as the document id.
type Document struct {
	Path    string
	ID      string
	Manager *session.Manager
}

// Open prepares the document at path. Only .json and .yaml files are accepted.
func Open(path string, opts ...session.Option) (*Document, error) {
	ext := filepath.Ext(path)
	if ext != ".json" && ext != ".yaml" {
		return nil, fmt.Errorf("%s: document files must end in .json or .yaml", path)
	}
	format, err := file.ParseFormat(strings.TrimPrefix(ext, "."))
	if err != nil {
		return nil, err
	}
	store := file.New(filepath.Dir(path), file.WithFormat(format))
	return &Document{
		Path:    path,
		ID:      strings.TrimSuffix(filepath.Base(path), ext),
		Manager: session.NewManager(store, opts...),
	}, nil
}

// Load returns the decoded document tree.
func (d *Document) Load(ctx context.Context) (*domain.Record, error) {
	return d.Manager.Load(ctx, d.ID)
}

// Validate checks collection consistency, dangling rule references and
// record properties.
func (d *Document) Validate(ctx context.Context) error {
	return d.Manager.View(ctx, d.ID, func(pf *project.Factory) error {
		if err := pf.Validate(); err != nil {
			return err
		}
		return schema.ValidateTree(pf.Target(), pf.MaxDepth())
	})
}

// Migrate upgrades the file in place.
func (d *Document) Migrate(ctx context.Context) ([]int, error) {
	return d.Manager.Migrate(ctx, d.ID)
}

// Target selects which record collection a mutation applies to.
// A zero SceneID addresses the project itself (scenes and variables).
type Target struct {
	SceneID int64
	Type    domain.RecordType
	ID      int64
	Deep    bool
}

// ParseRecordType validates a --type flag value.
func ParseRecordType(s string) (domain.RecordType, error) {
	if !domain.IsRecordType(s) || s == string(domain.TypeProject) {
		return "", fmt.Errorf("unknown record type %q", s)
	}
	return domain.RecordType(s), nil
}

// Duplicate copies the target record and saves the file.
func (d *Document) Duplicate(ctx context.Context, t Target) (*domain.Record, error) {
	var dup *domain.Record
	err := d.Manager.Edit(ctx, d.ID, func(pf *project.Factory) error {
		rf, err := resolve(pf, t.SceneID)
		if err != nil {
			return err
		}
		if t.Deep {
			dup, err = rf.DuplicateDeepRecord(t.Type, t.ID)
		} else {
			dup, err = rf.DuplicateRecord(t.Type, t.ID)
		}
		return err
	})
	return dup, err
}

// Delete removes the target record, runs its cascades and saves the file.
func (d *Document) Delete(ctx context.Context, t Target) (*domain.Record, error) {
	var removed *domain.Record
	err := d.Manager.Edit(ctx, d.ID, func(pf *project.Factory) error {
		rf, err := resolve(pf, t.SceneID)
		if err != nil {
			return err
		}
		if t.Deep {
			removed, err = rf.DeleteDeepRecord(t.Type, t.ID)
		} else {
			removed, err = rf.DeleteRecord(t.Type, t.ID)
		}
		return err
	})
	return removed, err
}

// ChangeID gives the target record a fresh id and returns it.
func (d *Document) ChangeID(ctx context.Context, t Target) (int64, error) {
	var id int64
	err := d.Manager.Edit(ctx, d.ID, func(pf *project.Factory) error {
		rf, err := resolve(pf, t.SceneID)
		if err != nil {
			return err
		}
		id, err = rf.ChangeRecordID(t.Type, t.ID)
		return err
	})
	return id, err
}

func resolve(pf *project.Factory, sceneID int64) (*record.Factory, error) {
	if sceneID == 0 {
		return pf.Factory, nil
	}
	sf, err := pf.Scene(sceneID)
	if err != nil {
		return nil, err
	}
	return sf.Factory, nil
}
