package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/tuimath/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// eventBatchSize keeps multi-row inserts under SQLite's bound-variable limit.
const eventBatchSize = 90

// SQLite stores sessions in an SQLite database.
type SQLite struct {
	db     *sql.DB
	path   string
	logger *log.Logger
}

// OpenSQLite opens or creates the database and applies migrations.
func OpenSQLite(path string, opts ...Option) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, wrapErr("create directory for", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapErr("open", path, err)
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db, path: path, logger: newOptions(opts).logger}
	if err := s.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, wrapErr("migrate", path, err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			score INTEGER NOT NULL,
			questions_asked INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS answer_events (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			operation TEXT NOT NULL,
			operand1 INTEGER NOT NULL,
			operand2 INTEGER NOT NULL,
			correct_answer REAL NOT NULL,
			user_answer REAL,
			is_correct INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			elapsed_seconds REAL NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AppendSession stores a finalized session and its events in one transaction.
func (s *SQLite) AppendSession(ctx context.Context, rec model.SessionRecord) (id string, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", wrapErr("write", s.path, err)
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
			err = wrapErr("write", s.path, err)
		}
	}()

	var lookupErr error
	id = uniqueID(rec.ID, func(candidate string) bool {
		query, args, qerr := sqlBuilder.Select("COUNT(1)").From("sessions").Where(squirrel.Eq{"id": candidate}).ToSql()
		if qerr != nil {
			lookupErr = qerr
			return false
		}
		var n int
		if qerr := tx.QueryRowContext(ctx, query, args...).Scan(&n); qerr != nil {
			lookupErr = qerr
			return false
		}
		return n > 0
	})
	if lookupErr != nil {
		return "", lookupErr
	}

	query, args, err := sqlBuilder.Insert("sessions").
		Columns("id", "started_at", "ended_at", "duration_seconds", "score", "questions_asked").
		Values(id, rec.StartedAt.UTC().Format(time.RFC3339Nano), rec.EndedAt.UTC().Format(time.RFC3339Nano),
			rec.DurationSeconds, rec.Score, rec.QuestionsAsked).
		ToSql()
	if err != nil {
		return "", err
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return "", err
	}

	for start := 0; start < len(rec.Events); start += eventBatchSize {
		end := min(start+eventBatchSize, len(rec.Events))
		insert := sqlBuilder.Insert("answer_events").Columns(
			"session_id", "seq", "operation", "operand1", "operand2",
			"correct_answer", "user_answer", "is_correct", "skipped", "elapsed_seconds")
		for i := start; i < end; i++ {
			ev := rec.Events[i]
			var answer any
			if ev.UserAnswer != nil {
				answer = *ev.UserAnswer
			}
			insert = insert.Values(id, i, string(ev.Operation), ev.Operand1, ev.Operand2,
				ev.CorrectAnswer, answer, ev.IsCorrect, ev.Skipped, ev.ElapsedSeconds)
		}
		query, args, err = insert.ToSql()
		if err != nil {
			return "", err
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ReadAllSessions returns every stored session in insertion order.
func (s *SQLite) ReadAllSessions(ctx context.Context) ([]model.SessionRecord, error) {
	sessions, err := s.listSessions(ctx)
	if err != nil {
		return nil, wrapErr("read", s.path, err)
	}
	events, err := s.listEvents(ctx)
	if err != nil {
		return nil, wrapErr("read", s.path, err)
	}
	for i := range sessions {
		sessions[i].Events = events[sessions[i].ID]
	}
	return sessions, nil
}

func (s *SQLite) listSessions(ctx context.Context) ([]model.SessionRecord, error) {
	query, args, err := sqlBuilder.
		Select("id", "started_at", "ended_at", "duration_seconds", "score", "questions_asked").
		From("sessions").
		OrderBy("rowid ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &startedAt, &endedAt, &rec.DurationSeconds, &rec.Score, &rec.QuestionsAsked); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		rec.StartedAt, rec.EndedAt = rec.StartedAt.Local(), rec.EndedAt.Local()
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

func (s *SQLite) listEvents(ctx context.Context) (map[string][]model.AnswerEvent, error) {
	query, args, err := sqlBuilder.
		Select("session_id", "operation", "operand1", "operand2", "correct_answer",
			"user_answer", "is_correct", "skipped", "elapsed_seconds").
		From("answer_events").
		OrderBy("session_id", "seq").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[string][]model.AnswerEvent{}
	for rows.Next() {
		var sessionID, op string
		var ev model.AnswerEvent
		var answer sql.NullFloat64
		if err := rows.Scan(&sessionID, &op, &ev.Operand1, &ev.Operand2, &ev.CorrectAnswer,
			&answer, &ev.IsCorrect, &ev.Skipped, &ev.ElapsedSeconds); err != nil {
			return nil, err
		}
		if ev.Operation, err = model.ParseOperation(op); err != nil {
			s.logger.Warn("skipped answer with unknown operation", "path", s.path, "session", sessionID, "err", err)
			continue
		}
		if answer.Valid {
			v := answer.Float64
			ev.UserAnswer = &v
		}
		result[sessionID] = append(result[sessionID], ev)
	}
	return result, rows.Err()
}
