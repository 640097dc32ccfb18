package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				username TEXT NOT NULL UNIQUE COLLATE NOCASE,
				email TEXT NOT NULL UNIQUE COLLATE NOCASE,
				password_hash TEXT NOT NULL,
				full_name TEXT NOT NULL DEFAULT '',
				bio TEXT NOT NULL DEFAULT '',
				avatar_path TEXT,
				is_admin BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				slug TEXT NOT NULL,
				title TEXT NOT NULL,
				author TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				year INTEGER,
				genre TEXT NOT NULL,
				uploader_id INTEGER REFERENCES users (id) ON DELETE CASCADE NOT NULL,
				pdf_path TEXT NOT NULL,
				num_pages INTEGER NOT NULL DEFAULT 0,
				meta_title TEXT NOT NULL DEFAULT '',
				meta_author TEXT NOT NULL DEFAULT '',
				cover_path TEXT,
				cover_thumb_path TEXT,
				page_image_paths TEXT NOT NULL DEFAULT '[]',
				keywords TEXT NOT NULL DEFAULT '[]'
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_books_slug ON books (slug)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_books_uploader_id ON books (uploader_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_books_genre ON books (genre)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE book_favorites (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				book_id INTEGER REFERENCES books (id) ON DELETE CASCADE NOT NULL,
				user_id INTEGER REFERENCES users (id) ON DELETE CASCADE NOT NULL,
				UNIQUE (book_id, user_id)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_book_favorites_user_id ON book_favorites (user_id)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"book_favorites", "books", "users"} {
			_, err := db.Exec("DROP TABLE IF EXISTS " + table)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
