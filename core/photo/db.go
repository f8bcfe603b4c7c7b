package photo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, p Photo) error {
	const q = `
	INSERT INTO photos
		(photo_id, title, description, theme, image_url, price_license, price_print, inventory, created_at, updated_at)
	VALUES
		(:photo_id, :title, :description, :theme, :image_url, :price_license, :price_print, :inventory, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting photo: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Photo, error) {
	const q = `SELECT * FROM photos WHERE photo_id = $1`

	var p Photo
	if err := sqlx.GetContext(ctx, db, &p, q, id); err != nil {
		return Photo{}, fmt.Errorf("fetching photo[%s]: %w", id, err)
	}

	return p, nil
}

func List(ctx context.Context, db sqlx.ExtContext, f Filter) ([]Photo, error) {
	q := `SELECT * FROM photos WHERE 1=1`
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Theme != "" && f.Theme != "All" {
		q += ` AND theme = ` + arg(f.Theme)
	}

	between := func(col string) string {
		return fmt.Sprintf(` AND %s BETWEEN %s AND %s`, col, arg(f.PriceMin), arg(f.PriceMax))
	}

	switch f.Type {
	case "license":
		q += between("price_license")
	case "print":
		q += between("price_print")
	default:
		q += between("price_license")
		q += between("price_print")
	}

	q += ` ORDER BY created_at, photo_id`

	photos := []Photo{}
	if err := sqlx.SelectContext(ctx, db, &photos, q, args...); err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}

	return photos, nil
}

func Themes(ctx context.Context, db sqlx.ExtContext) ([]string, error) {
	const q = `SELECT DISTINCT theme FROM photos ORDER BY theme`

	themes := []string{}
	if err := sqlx.SelectContext(ctx, db, &themes, q); err != nil {
		return nil, fmt.Errorf("listing themes: %w", err)
	}

	return themes, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, p Photo) error {
	const q = `
	UPDATE photos SET
		title = :title,
		description = :description,
		theme = :theme,
		image_url = :image_url,
		price_license = :price_license,
		price_print = :price_print,
		inventory = :inventory,
		updated_at = :updated_at,
		version = version + 1
	WHERE photo_id = :photo_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("updating photo[%s]: %w", p.ID, err)
	}

	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM photos WHERE photo_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting photo[%s]: %w", id, err)
	}

	return nil
}

// Referenced reports whether any purchase row points at the photo.
// Referenced photos must not be deleted.
func Referenced(ctx context.Context, db sqlx.ExtContext, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM purchases WHERE photo_id = $1)`

	var exists bool
	if err := sqlx.GetContext(ctx, db, &exists, q, id); err != nil {
		return false, fmt.Errorf("checking purchases of photo[%s]: %w", id, err)
	}

	return exists, nil
}

// DecrementStock conditionally takes qty prints out of inventory. The
// guard in the WHERE clause keeps inventory from going negative under
// concurrent checkouts; a false return means the stock did not cover
// the request and nothing was changed.
func DecrementStock(ctx context.Context, db sqlx.ExtContext, id string, qty int) (bool, error) {
	const q = `
	UPDATE photos SET
		inventory = inventory - $2,
		updated_at = now(),
		version = version + 1
	WHERE photo_id = $1 AND inventory >= $2`

	res, err := db.ExecContext(ctx, q, id, qty)
	if err != nil {
		return false, fmt.Errorf("decrementing stock of photo[%s]: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading affected rows: %w", err)
	}

	return rows == 1, nil
}

// Stock reads the live inventory counter.
func Stock(ctx context.Context, db sqlx.ExtContext, id string) (int, error) {
	const q = `SELECT inventory FROM photos WHERE photo_id = $1`

	var inv int
	if err := sqlx.GetContext(ctx, db, &inv, q, id); err != nil {
		return 0, fmt.Errorf("fetching stock of photo[%s]: %w", id, err)
	}

	return inv, nil
}
