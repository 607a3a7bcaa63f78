package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
)

type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(store *Store) *AdminRepository {
	return &AdminRepository{db: store.DB}
}

func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*entity.Admin, error) {
	admin := &entity.Admin{}
	query := `SELECT id, username, password_hash FROM admins WHERE username = ?`
	err := r.db.QueryRowContext(ctx, query, username).Scan(&admin.ID, &admin.Username, &admin.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (r *AdminRepository) Create(ctx context.Context, admin *entity.Admin) (*entity.Admin, error) {
	query := `INSERT INTO admins (username, password_hash) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, query, admin.Username, admin.PasswordHash)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	admin.ID = int(id)
	return admin, nil
}
