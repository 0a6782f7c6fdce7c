package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"

	"github.com/joseph-ayodele/file-ingestor/constants"
)

const textSize = 2147483647

var (
	// ConfigColumns holds the columns for the "ingestion_config" table.
	ConfigColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "pattern", Type: field.TypeString, Size: textSize},
		{Name: "destination", Type: field.TypeString, Size: 255},
		{Name: "decode_config", Type: field.TypeString, Size: textSize, Nullable: true},
	}
	// ConfigTable holds the rules, in declaration (id) order.
	ConfigTable = &schema.Table{
		Name:       constants.TableIngestionConfig,
		Columns:    ConfigColumns,
		PrimaryKey: []*schema.Column{ConfigColumns[0]},
	}

	// LogsColumns holds the columns for the "ingestion_logs" table.
	LogsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "file_name", Type: field.TypeString, Size: textSize},
		{Name: "start_time", Type: field.TypeTime},
		{Name: "end_time", Type: field.TypeTime, Nullable: true},
		{Name: "status", Type: field.TypeString, Size: 16},
		{Name: "message", Type: field.TypeString, Size: textSize, Nullable: true},
		{Name: "record_count", Type: field.TypeInt, Default: 0},
		{Name: "checksum", Type: field.TypeString, Size: 32, Nullable: true},
	}
	// LogsTable holds one row per processing attempt.
	LogsTable = &schema.Table{
		Name:       constants.TableIngestionLogs,
		Columns:    LogsColumns,
		PrimaryKey: []*schema.Column{LogsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "ingestionlogs_status", Columns: []*schema.Column{LogsColumns[4]}},
			{Name: "ingestionlogs_start_time", Columns: []*schema.Column{LogsColumns[2]}},
		},
	}

	// Tables lists the tables owned by the ingestor.
	Tables = []*schema.Table{ConfigTable, LogsTable}
)

// destinationTable describes a table that receives decoded records.
func destinationTable(name string) *schema.Table {
	cols := []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: constants.FieldLogID, Type: field.TypeString, Size: 36},
		{Name: constants.FieldFileName, Type: field.TypeString, Size: textSize},
		{Name: "data", Type: field.TypeJSON},
		{Name: "created_at", Type: field.TypeTime},
	}
	return &schema.Table{
		Name:       name,
		Columns:    cols,
		PrimaryKey: []*schema.Column{cols[0]},
		Indexes: []*schema.Index{
			{Name: name + "_log_id", Columns: []*schema.Column{cols[1]}},
		},
	}
}

// Migrate creates or updates the ingestor's own tables. Columns are never dropped.
func (s *Store) Migrate(ctx context.Context) error {
	return s.migrate(ctx, Tables...)
}

func (s *Store) migrate(ctx context.Context, tables ...*schema.Table) error {
	m, err := schema.NewMigrate(s.Driver, schema.WithDropColumn(false), schema.WithDropIndex(false))
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
