package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

const schema = `
CREATE TABLE IF NOT EXISTS products (
	seq         BIGSERIAL,
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL,
	description TEXT NOT NULL,
	price       DOUBLE PRECISION NOT NULL CHECK (price > 0),
	stock       INTEGER NOT NULL CHECK (stock >= 0),
	image       TEXT,
	rating      DOUBLE PRECISION CHECK (rating BETWEEN 1 AND 10)
)`

const productColumns = `id, name, category, description, price, stock, image, rating`

type PostgresStore struct {
	db    *sql.DB
	newID IDFunc
}

// OpenPostgres opens a pool through the pgx database/sql driver.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := withTimeout(ctx, pingTimeout, db.PingContext); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func NewPostgresStore(db *sql.DB, newID IDFunc) *PostgresStore {
	return &PostgresStore{db: db, newID: newID}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, schema)
		return err
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, s.db.PingContext)
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			ORDER BY seq ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows.Scan)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProduct(s.db.QueryRowContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = $1
		`, id).Scan)
		return err
	})
	return p, notFound(err)
}

func (s *PostgresStore) Create(ctx context.Context, in ProductInput) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	for range maxIDAttempts {
		p := in.product(s.newID())
		err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
			_, err := s.db.ExecContext(ctx, `
				INSERT INTO products (`+productColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, p.ID, p.Name, p.Category, p.Description, p.Price, p.Stock, nullString(p.Image), p.Rating)
			return err
		})
		if err == nil {
			return p, nil
		}
		if !isUniqueViolation(err) {
			return Product{}, err
		}
	}
	return Product{}, errIDExhausted
}

func (s *PostgresStore) Update(ctx context.Context, id string, in ProductInput) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	var p Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProduct(s.db.QueryRowContext(ctx, `
			UPDATE products
			SET name = $2, category = $3, description = $4, price = $5,
			    stock = $6, image = $7, rating = $8
			WHERE id = $1
			RETURNING `+productColumns,
			id, in.Name, in.Category, in.Description, in.Price, in.Stock, nullString(in.Image), in.Rating,
		).Scan)
		return err
	})
	return p, notFound(err)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) (Product, error) {
	var p Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProduct(s.db.QueryRowContext(ctx, `
			DELETE FROM products
			WHERE id = $1
			RETURNING `+productColumns,
			id,
		).Scan)
		return err
	})
	return p, notFound(err)
}

func scanProduct(scan func(dest ...any) error) (Product, error) {
	var (
		p      Product
		image  sql.NullString
		rating sql.NullFloat64
	)
	if err := scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.Stock, &image, &rating); err != nil {
		return Product{}, err
	}
	p.Image = image.String
	if rating.Valid {
		p.Rating = &rating.Float64
	}
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
