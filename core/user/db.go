package user

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, usr User) error {
	const q = `
	INSERT INTO users (user_id, name, password_hash, role, created_at, updated_at)
	VALUES (:user_id, :name, :password_hash, :role, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, usr); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, id); err != nil {
		return User{}, fmt.Errorf("fetching user[%s]: %w", id, err)
	}

	return usr, nil
}

func FetchByName(ctx context.Context, db sqlx.ExtContext, name string) (User, error) {
	const q = `SELECT * FROM users WHERE name = $1`

	var usr User
	if err := sqlx.GetContext(ctx, db, &usr, q, name); err != nil {
		return User{}, fmt.Errorf("fetching user by name: %w", err)
	}

	return usr, nil
}
