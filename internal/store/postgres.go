package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/surfenergy/internal/types"
)

// columnStateRecord is the row layout of the column_states table
type columnStateRecord struct {
	CellID    string `gorm:"primaryKey;column:cell_id"`
	State     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (columnStateRecord) TableName() string {
	return "column_states"
}

// PostgresStore keeps column states in a PostgreSQL database
type PostgresStore struct {
	DB     *gorm.DB
	logger *zap.SugaredLogger
}

// NewPostgresStore connects to the database and migrates the state table
func NewPostgresStore(connectionString string, log *zap.SugaredLogger) (*PostgresStore, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	dbLogger := logger.New(
		zap.NewStdLog(log.Desugar()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	log.Info("connecting to PostgreSQL...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("unable to create a PostgreSQL connection: %w", err)
	}
	if err := db.AutoMigrate(&columnStateRecord{}); err != nil {
		return nil, fmt.Errorf("error migrating column_states table: %w", err)
	}
	log.Info("PostgreSQL connection successful")

	return &PostgresStore{DB: db, logger: log}, nil
}

// Load implements StateStore
func (p *PostgresStore) Load(ctx context.Context, cellID string) (*types.ColumnState, error) {
	var rec columnStateRecord
	err := p.DB.WithContext(ctx).Where("cell_id = ?", cellID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying state of cell %s: %w", cellID, err)
	}
	return decode(rec.State)
}

// Save implements StateStore
func (p *PostgresStore) Save(ctx context.Context, cellID string, s *types.ColumnState) error {
	blob, err := encode(s)
	if err != nil {
		return err
	}
	rec := columnStateRecord{CellID: cellID, State: blob, UpdatedAt: time.Now().UTC()}
	err = p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cell_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("error saving state of cell %s: %w", cellID, err)
	}
	return nil
}

// Close implements StateStore
func (p *PostgresStore) Close() error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
