// Package migrate applies the embedded session-store migrations.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/and161185/campus-onboard/migrations"
)

// Up applies pending migrations and logs each applied version.
func Up(ctx context.Context, dsn string, log *zap.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	res, err := p.Up(ctx)
	for _, r := range res {
		log.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.Duration("dur", r.Duration),
		)
	}
	return err
}
