package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/zazij/internal/model"
)

// PostgresFavoriteRepo はPostgreSQLを使用したお気に入りリポジトリ。
type PostgresFavoriteRepo struct {
	db *sql.DB
}

// NewPostgresFavoriteRepo はPostgresFavoriteRepoを生成する。
func NewPostgresFavoriteRepo(db *sql.DB) *PostgresFavoriteRepo {
	return &PostgresFavoriteRepo{db: db}
}

// List はお気に入りを登録順に返す。
func (r *PostgresFavoriteRepo) List(ctx context.Context) ([]model.FavoriteEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT event_id, created_at FROM favorite_events ORDER BY created_at, event_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("お気に入りの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	favorites := []model.FavoriteEvent{}
	for rows.Next() {
		var f model.FavoriteEvent
		if err := rows.Scan(&f.EventID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("お気に入りのスキャンに失敗しました: %w", err)
		}
		favorites = append(favorites, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("お気に入りの読み込みに失敗しました: %w", err)
	}

	return favorites, nil
}

// ListIDs はお気に入りのイベントIDを登録順に返す。
func (r *PostgresFavoriteRepo) ListIDs(ctx context.Context) ([]int64, error) {
	favorites, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(favorites))
	for i, f := range favorites {
		ids[i] = f.EventID
	}
	return ids, nil
}

// Add はイベントIDを登録する。登録済みの場合は何もしない。
func (r *PostgresFavoriteRepo) Add(ctx context.Context, eventID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favorite_events (event_id) VALUES ($1)
		 ON CONFLICT (event_id) DO NOTHING`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("お気に入りの登録に失敗しました: %w", err)
	}
	return nil
}

// Remove はイベントIDを削除する。
func (r *PostgresFavoriteRepo) Remove(ctx context.Context, eventID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favorite_events WHERE event_id = $1`,
		eventID,
	)
	if err != nil {
		return fmt.Errorf("お気に入りの削除に失敗しました: %w", err)
	}
	return nil
}

// Contains はイベントIDが登録済みかを返す。
func (r *PostgresFavoriteRepo) Contains(ctx context.Context, eventID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorite_events WHERE event_id = $1)`,
		eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("お気に入りの確認に失敗しました: %w", err)
	}
	return exists, nil
}
