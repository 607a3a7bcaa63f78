package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
)

const flavourColumns = `id, name, description, price, image_url, is_available, created_at`

type FlavourRepository struct {
	db *sql.DB
}

func NewFlavourRepository(store *Store) *FlavourRepository {
	return &FlavourRepository{db: store.DB}
}

func scanFlavour(row scanner) (*entity.Flavour, error) {
	f := &entity.Flavour{}
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Price, &f.ImageURL, &f.IsAvailable, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *FlavourRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Flavour, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flavours := []*entity.Flavour{}
	for rows.Next() {
		f, err := scanFlavour(rows)
		if err != nil {
			return nil, err
		}
		flavours = append(flavours, f)
	}
	return flavours, rows.Err()
}

// ListAvailable returns the flavours customers can order, in insertion order.
func (r *FlavourRepository) ListAvailable(ctx context.Context) ([]*entity.Flavour, error) {
	return r.list(ctx, `SELECT `+flavourColumns+` FROM flavours WHERE is_available = ? ORDER BY id`, true)
}

func (r *FlavourRepository) ListAll(ctx context.Context) ([]*entity.Flavour, error) {
	return r.list(ctx, `SELECT `+flavourColumns+` FROM flavours ORDER BY id`)
}

func (r *FlavourRepository) GetByID(ctx context.Context, id int) (*entity.Flavour, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+flavourColumns+` FROM flavours WHERE id = ?`, id)
	f, err := scanFlavour(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return f, err
}

func (r *FlavourRepository) Create(ctx context.Context, flavour *entity.Flavour) (*entity.Flavour, error) {
	query := `INSERT INTO flavours (name, description, price, image_url, is_available, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, flavour.Name, nullable(flavour.Description), flavour.Price.String(), nullable(flavour.ImageURL), flavour.IsAvailable, flavour.CreatedAt)
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

	flavour.ID = int(id)
	return flavour, nil
}

// Update applies the fields present in patch with a single statement, so a
// failure leaves the row untouched. Validation of the values is the caller's
// job.
func (r *FlavourRepository) Update(ctx context.Context, id int, patch entity.FlavourPatch) error {
	var (
		sets []string
		args []any
	)
	if patch.Name.Set {
		sets = append(sets, "name = ?")
		args = append(args, nullable(patch.Name.Ptr()))
	}
	if patch.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, nullable(patch.Description.Ptr()))
	}
	if patch.Price.Set {
		sets = append(sets, "price = ?")
		args = append(args, decimalArg(patch.Price))
	}
	if patch.ImageURL.Set {
		sets = append(sets, "image_url = ?")
		args = append(args, nullable(patch.ImageURL.Ptr()))
	}
	if patch.IsAvailable.Set {
		sets = append(sets, "is_available = ?")
		args = append(args, nullable(patch.IsAvailable.Ptr()))
	}

	if len(sets) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx, `UPDATE flavours SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the flavour. Order items that reference it are left alone.
func (r *FlavourRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM flavours WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
