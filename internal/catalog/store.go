package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"bannerserver/internal/domain/layout"
	"bannerserver/internal/infra"
	"bannerserver/internal/sqlinline"
)

// Store reads and writes operator-managed templates in the banner_templates table.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Load returns every enabled template. The definition column holds the
// template JSON; the row id wins over any id inside it.
func (s *Store) Load(ctx context.Context) ([]layout.Template, error) {
	rows, err := s.sql.Query(ctx, sqlinline.QSelectBannerTemplates)
	if err != nil {
		return nil, fmt.Errorf("catalog: query templates: %w", err)
	}
	defer rows.Close()
	var out []layout.Template
	for rows.Next() {
		var id string
		var definition []byte
		if err := rows.Scan(&id, &definition); err != nil {
			return nil, fmt.Errorf("catalog: scan template: %w", err)
		}
		var t layout.Template
		if err := json.Unmarshal(definition, &t); err != nil {
			return nil, fmt.Errorf("catalog: decode template %s: %w", id, err)
		}
		t.ID = id
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate templates: %w", err)
	}
	return out, nil
}

// Save validates t and upserts it by ID. Built-in IDs are reserved.
func (s *Store) Save(ctx context.Context, t layout.Template) error {
	t.ID = strings.TrimSpace(t.ID)
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", layout.ErrInvalidTemplate)
	}
	if IsBuiltinID(t.ID) {
		return fmt.Errorf("%w: %q", ErrReservedID, t.ID)
	}
	if err := t.Validate(); err != nil {
		return err
	}
	w, h, _ := layout.ParseResolution(t.Resolution)
	t.Resolution = layout.FormatResolution(w, h)
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertBannerTemplate, t.ID, t.Resolution, t.NumImages, raw)
	return err
}

// Disable hides a template from subsequent loads.
func (s *Store) Disable(ctx context.Context, id string) error {
	_, err := s.sql.Exec(ctx, sqlinline.QDisableBannerTemplate, strings.TrimSpace(id))
	return err
}
