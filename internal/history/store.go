// Package history records terminal match results. Live lobby/match state is
// never persisted; only finished games leave a row behind, and only when a
// database is configured at all.
package history

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/eyalzus12/FourInARowBattle-sub000/internal/game"
)

// MatchResult is one finished game.
type MatchResult struct {
	ID           uint `gorm:"primaryKey"`
	Player1      string
	Player2      string
	Result       uint8
	Player1Score uint32
	Player2Score uint32
	FinishedAt   time.Time
}

// Store writes results asynchronously so the authority loop never waits on
// the database. It satisfies server.Recorder.
type Store struct {
	db   *gorm.DB
	log  *zap.Logger
	jobs chan MatchResult
	done chan struct{}
}

// Open connects with the given Postgres DSN and migrates the results table.
func Open(dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&MatchResult{}); err != nil {
		return nil, err
	}
	s := &Store{
		db:   db,
		log:  log,
		jobs: make(chan MatchResult, 64),
		done: make(chan struct{}),
	}
	go s.writer()
	return s, nil
}

// RecordResult implements server.Recorder. It never blocks; under a full
// queue the result is dropped with a log line rather than stalling matches.
func (s *Store) RecordResult(player1, player2 string, report game.Report) {
	row := MatchResult{
		Player1:      player1,
		Player2:      player2,
		Result:       uint8(report.Result),
		Player1Score: report.Player1Score,
		Player2Score: report.Player2Score,
		FinishedAt:   time.Now(),
	}
	select {
	case s.jobs <- row:
	default:
		s.log.Warn("history queue full; dropping result",
			zap.String("player1", player1),
			zap.String("player2", player2))
	}
}

// Close drains pending writes and stops the writer.
func (s *Store) Close() {
	close(s.jobs)
	<-s.done
}

func (s *Store) writer() {
	defer close(s.done)
	for row := range s.jobs {
		if err := s.db.Create(&row).Error; err != nil {
			s.log.Error("history insert failed", zap.Error(err))
		}
	}
}
