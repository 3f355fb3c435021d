package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Flotilla/internal/domain"
)

// MExRepo — репозиторий реестра мобильных исполнителей.
//
// Таблица mexs — авторитетный источник состояния флота: диспетчер
// видит её только через HTTP API sentinel'а.
type MExRepo struct {
	pool *pgxpool.Pool
}

// NewMExRepo создаёт новый MExRepo.
func NewMExRepo(pool *pgxpool.Pool) *MExRepo {
	return &MExRepo{pool: pool}
}

// Register регистрирует исполнителя. Повторная регистрация того же id
// сбрасывает его в STANDBY и обновляет позу: агент после рестарта
// начинает с чистого состояния.
func (r *MExRepo) Register(ctx context.Context, mex *domain.MobileExecutor) error {
	query := `
		INSERT INTO mexs (id, status, job_id, pose_x, pose_y, pose_theta, registered_at, updated_at)
		VALUES ($1, $2, NULL, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE
		SET status = $2, job_id = NULL, pose_x = $3, pose_y = $4, pose_theta = $5, updated_at = $6
	`
	now := time.Now()
	_, err := r.pool.Exec(ctx, query,
		mex.ID,
		domain.MExStatusStandby,
		mex.Pose.X,
		mex.Pose.Y,
		mex.Pose.Theta,
		now,
	)
	if err != nil {
		return fmt.Errorf("register mex: %w", err)
	}
	return nil
}

// GetByID возвращает исполнителя по id.
func (r *MExRepo) GetByID(ctx context.Context, id string) (*domain.MobileExecutor, error) {
	query := `
		SELECT id, status, job_id, pose_x, pose_y, pose_theta, registered_at, updated_at
		FROM mexs
		WHERE id = $1
	`
	return scanMEx(r.pool.QueryRow(ctx, query, id))
}

// List возвращает снапшот всего флота в стабильном порядке.
func (r *MExRepo) List(ctx context.Context) ([]domain.MobileExecutor, error) {
	query := `
		SELECT id, status, job_id, pose_x, pose_y, pose_theta, registered_at, updated_at
		FROM mexs
		ORDER BY registered_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list mexs: %w", err)
	}
	defer rows.Close()

	var fleet []domain.MobileExecutor
	for rows.Next() {
		mex, err := scanMEx(rows)
		if err != nil {
			return nil, err
		}
		fleet = append(fleet, *mex)
	}
	return fleet, rows.Err()
}

// Assign закрепляет job за исполнителем и переводит его в ASSIGNED.
//
// Условие status = STANDBY проверяется в том же UPDATE: два
// конкурирующих назначения не могут получить одного исполнителя.
func (r *MExRepo) Assign(ctx context.Context, mexID, jobID string) error {
	query := `
		UPDATE mexs
		SET status = $2, job_id = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`
	result, err := r.pool.Exec(ctx, query, mexID, domain.MExStatusAssigned, jobID, domain.MExStatusStandby)
	if err != nil {
		return fmt.Errorf("assign mex: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Либо исполнителя нет, либо он не STANDBY.
		if _, err := r.GetByID(ctx, mexID); err != nil {
			return err
		}
		return fmt.Errorf("%w: mex %s is not STANDBY", ErrInvalidState, mexID)
	}
	return nil
}

// ChangeStatus меняет статус исполнителя.
func (r *MExRepo) ChangeStatus(ctx context.Context, mexID string, status domain.MExStatus) error {
	if !domain.ValidMExStatus(string(status)) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidState, status)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE mexs SET status = $2, updated_at = NOW() WHERE id = $1
	`, mexID, status)
	if err != nil {
		return fmt.Errorf("change mex status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Release отвязывает job и возвращает исполнителя в STANDBY.
// Вызывается при обработке jobs.completed.
func (r *MExRepo) Release(ctx context.Context, mexID string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE mexs SET status = $2, job_id = NULL, updated_at = NOW() WHERE id = $1
	`, mexID, domain.MExStatusStandby)
	if err != nil {
		return fmt.Errorf("release mex: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePose обновляет последнюю известную позу исполнителя.
func (r *MExRepo) UpdatePose(ctx context.Context, mexID string, pose domain.Pose) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE mexs SET pose_x = $2, pose_y = $3, pose_theta = $4, updated_at = NOW() WHERE id = $1
	`, mexID, pose.X, pose.Y, pose.Theta)
	if err != nil {
		return fmt.Errorf("update mex pose: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete снимает исполнителя с учёта.
func (r *MExRepo) Delete(ctx context.Context, mexID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM mexs WHERE id = $1`, mexID)
	if err != nil {
		return fmt.Errorf("delete mex: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMEx(row pgx.Row) (*domain.MobileExecutor, error) {
	var m domain.MobileExecutor
	var jobID *string

	err := row.Scan(
		&m.ID,
		&m.Status,
		&jobID,
		&m.Pose.X,
		&m.Pose.Y,
		&m.Pose.Theta,
		&m.RegisteredAt,
		&m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan mex: %w", err)
	}

	if jobID != nil {
		m.JobID = *jobID
	}
	return &m, nil
}
