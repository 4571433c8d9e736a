package store

import (
	"context"
	"encoding/json"

	"github.com/cyphera/cyphera-permissions/internal/db"
	"github.com/cyphera/cyphera-permissions/internal/logger"
	"github.com/cyphera/cyphera-permissions/internal/types/business"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// PostgresPersister stores each subject's permissions as one JSONB row
type PostgresPersister struct {
	queries db.Querier
	logger  *zap.Logger
}

// NewPostgresPersister creates a persister over the given queries
func NewPostgresPersister(queries db.Querier) *PostgresPersister {
	return &PostgresPersister{
		queries: queries,
		logger:  logger.ForComponent(logger.ComponentStore),
	}
}

// SaveSubject upserts the subject's permissions
func (p *PostgresPersister) SaveSubject(ctx context.Context, origin string, permissions business.SubjectPermissions) error {
	payload, err := json.Marshal(permissions)
	if err != nil {
		return errors.Wrap(err, "failed to encode subject permissions")
	}
	if _, err := p.queries.UpsertSubjectPermissions(ctx, db.UpsertSubjectPermissionsParams{
		Origin:      origin,
		Permissions: payload,
	}); err != nil {
		return errors.Wrapf(err, "failed to upsert permissions for %s", origin)
	}
	return nil
}

// DeleteSubject removes the subject's row
func (p *PostgresPersister) DeleteSubject(ctx context.Context, origin string) error {
	if err := p.queries.DeleteSubjectPermissions(ctx, origin); err != nil {
		return errors.Wrapf(err, "failed to delete permissions for %s", origin)
	}
	return nil
}

// LoadSubjects reads every stored subject. Rows that cannot be decoded are
// skipped and logged.
func (p *PostgresPersister) LoadSubjects(ctx context.Context) (map[string]business.SubjectPermissions, error) {
	rows, err := p.queries.ListSubjectPermissions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list subject permissions")
	}

	subjects := make(map[string]business.SubjectPermissions, len(rows))
	for _, row := range rows {
		var permissions business.SubjectPermissions
		if err := json.Unmarshal(row.Permissions, &permissions); err != nil {
			p.logger.Warn("Skipping undecodable subject permissions",
				zap.String("origin", row.Origin),
				zap.Error(err))
			continue
		}
		if len(permissions) == 0 {
			continue
		}
		subjects[row.Origin] = permissions
	}
	return subjects, nil
}
