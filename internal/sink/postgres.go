package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	internalerrors "github.com/Schera-ole/phonemetrics/internal/errors"
	models "github.com/Schera-ole/phonemetrics/internal/model"
)

const insertPoint = `INSERT INTO readings (namespace, name, dimensions, ts, value, unit, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())`

// DBSink stores points in the readings table of a PostgreSQL database.
type DBSink struct {
	db *sql.DB
}

// NewDBSink opens a connection pool for dsn. The schema is created by
// migration.RunMigrations.
func NewDBSink(dsn string) (*DBSink, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DBSink{db: dbConnect}, nil
}

func (storage *DBSink) Publish(ctx context.Context, point models.Point) error {
	dimensions, err := dimensionsJSON(point.Dimensions)
	if err != nil {
		return err
	}
	_, err = storage.db.ExecContext(ctx, insertPoint,
		point.Namespace, point.Name, dimensions, point.Timestamp, point.Value, point.Unit)
	if err != nil {
		return classifyError(err)
	}
	return nil
}

func (storage *DBSink) Ping(ctx context.Context) error {
	if err := storage.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func (storage *DBSink) Close() error {
	return storage.db.Close()
}

// dimensionsJSON encodes dimensions as a JSON object. Keys come out sorted,
// so equal dimension sets compare equal in the unique index.
func dimensionsJSON(dimensions []models.Dimension) (string, error) {
	m := make(map[string]string, len(dimensions))
	for _, d := range dimensions {
		m[d.Name] = d.Value
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("error encoding dimensions: %w", err)
	}
	return string(data), nil
}

func classifyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", internalerrors.ErrDuplicatePoint, pgErr.Detail)
	}
	return fmt.Errorf("error saving point: %w", err)
}
