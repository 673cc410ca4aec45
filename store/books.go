package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"librarydesk/models"
)

const defaultPageSize = 20
const maxPageSize = 100

func (s *MySQLStore) CreateBook(ctx context.Context, book *models.Book) error {
	book.CreatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO books (title, author, isbn, published_date, copies_available, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		book.Title, book.Author, book.ISBN, book.PublishedDate, book.CopiesAvailable, book.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrISBNExists
		}
		return errors.Wrap(err, "insert book")
	}
	book.ID, _ = res.LastInsertId()
	return nil
}

func (s *MySQLStore) GetBookByID(ctx context.Context, id int64) (*models.Book, error) {
	var b models.Book
	err := s.db.GetContext(ctx, &b,
		"SELECT id, title, author, isbn, published_date, copies_available, created_at FROM books WHERE id = ?", id)
	if err == sql.ErrNoRows {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get book")
	}
	return &b, nil
}

// SearchBooks runs the catalog listing. The WHERE clause is assembled from
// whichever filters are set; ordering falls back to title ascending.
func (s *MySQLStore) SearchBooks(ctx context.Context, f models.CatalogFilter) (*models.CatalogPage, error) {
	conds := make([]goqu.Expression, 0, 4)
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		conds = append(conds, goqu.Or(
			goqu.C("title").Like(pattern),
			goqu.C("author").Like(pattern),
		))
	}
	if f.Author != "" {
		conds = append(conds, goqu.C("author").Like("%"+f.Author+"%"))
	}
	if f.ISBN != "" {
		conds = append(conds, goqu.C("isbn").Eq(f.ISBN))
	}
	if f.AvailableOnly {
		conds = append(conds, goqu.C("copies_available").Gt(0))
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	countSQL, countArgs, err := dialect.From("books").
		Select(goqu.COUNT(goqu.Star())).
		Where(conds...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build count query")
	}
	var total int
	if err := s.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, errors.Wrap(err, "count books")
	}

	listSQL, listArgs, err := dialect.From("books").
		Select("id", "title", "author", "isbn", "published_date", "copies_available", "created_at").
		Where(conds...).
		Order(catalogOrder(f.Ordering)).
		Limit(uint(pageSize)).
		Offset(uint((page - 1) * pageSize)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "build list query")
	}

	books := []models.Book{}
	if err := s.db.SelectContext(ctx, &books, listSQL, listArgs...); err != nil {
		return nil, errors.Wrap(err, "list books")
	}

	return &models.CatalogPage{Books: books, Total: total, Page: page, PageSize: pageSize}, nil
}

func catalogOrder(ordering string) exp.OrderedExpression {
	desc := strings.HasPrefix(ordering, "-")
	col := strings.TrimPrefix(ordering, "-")
	switch col {
	case "title", "author", "published_date", "created_at":
	default:
		col, desc = "title", false
	}
	if desc {
		return goqu.C(col).Desc()
	}
	return goqu.C(col).Asc()
}

func (s *MySQLStore) UpdateBook(ctx context.Context, book *models.Book) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE books SET title = ?, author = ?, isbn = ?, published_date = ? WHERE id = ?",
		book.Title, book.Author, book.ISBN, book.PublishedDate, book.ID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrISBNExists
		}
		return errors.Wrap(err, "update book")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetBookByID(ctx, book.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *MySQLStore) DeleteBook(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "delete book")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// AddCopies adjusts inventory outside the loan path (admin restock).
func (s *MySQLStore) AddCopies(ctx context.Context, id int64, delta int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE books SET copies_available = copies_available + ? WHERE id = ? AND copies_available + ? >= 0",
		delta, id, delta)
	if err != nil {
		return errors.Wrap(err, "adjust copies")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetBookByID(ctx, id); err != nil {
			return err
		}
		return ErrNoCopiesAvailable
	}
	return nil
}

func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
