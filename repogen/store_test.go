package repogen_test

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/rise-and-shine/blocks/entityquery"
	"github.com/rise-and-shine/blocks/logger"
	"github.com/rise-and-shine/blocks/pg"
	"github.com/rise-and-shine/blocks/repogen"
	"github.com/rise-and-shine/blocks/repository"
	"github.com/rise-and-shine/blocks/sorter"
)

type note struct {
	bun.BaseModel `bun:"table:notes,alias:n"`
	pg.TenantModel

	ID    int64  `bun:"id,pk"`
	Title string `bun:"title"`

	Tags []*tag `bun:"rel:has-many,join:id=note_id"`
}

type tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID     int64  `bun:"id,pk"`
	NoteID int64  `bun:"note_id"`
	Name   string `bun:"name"`
}

// sqlLike builds a regexp matching the literal fragments in order.
func sqlLike(fragments ...string) string {
	quoted := make([]string, len(fragments))
	for i, f := range fragments {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return strings.Join(quoted, ".*")
}

// allOf matches SQL containing every pattern in any order. A pattern prefixed with "!"
// must not match.
func allOf(patterns ...string) string {
	return strings.Join(patterns, "\n")
}

var clauseMatcher = sqlmock.QueryMatcherFunc(func(expected, actual string) error {
	for _, p := range strings.Split(expected, "\n") {
		negate := strings.HasPrefix(p, "!")
		re, err := regexp.Compile(strings.TrimPrefix(p, "!"))
		if err != nil {
			return err
		}
		if re.MatchString(actual) == negate {
			return fmt.Errorf("sql %q does not satisfy %q", actual, p)
		}
	}
	return nil
})

func newStore(t *testing.T) (*bun.DB, sqlmock.Sqlmock, *repogen.Store[note]) {
	t.Helper()
	sqldb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(clauseMatcher))
	require.NoError(t, err)
	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	store := repogen.NewBuilder[note](db).
		WithConflictCodes(pg.ConflictCodes{"notes_title_key": "NOTE_TITLE_TAKEN"}).
		Build()
	return db, mock, store
}

// tenantInSet matches the tenant column among the assignments of an UPDATE.
const tenantInSet = `(SET |, )"tenant_id" = `

var acmeOnly = repository.Criteria{Restricted: true, TenantID: "acme"}

func TestFindOne(t *testing.T) {
	t.Run("restricted with relations", func(t *testing.T) {
		_, mock, store := newStore(t)

		mock.ExpectQuery(sqlLike(`FROM "public"."notes" AS "n"`, `"n"."tenant_id" = 'acme'`, `"n"."id" = 7`, `LIMIT 1`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "title"}).AddRow(7, "acme", "groceries"))
		mock.ExpectQuery(sqlLike(`FROM "tags" AS "t"`, `"note_id"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "note_id", "name"}).AddRow(1, 7, "home"))

		c := acmeOnly
		c.ID = int64(7)
		c.Includes = entityquery.Query{}.Include("Tags")

		got, err := store.FindOne(t.Context(), c)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "groceries", got.Title)
		assert.Equal(t, "acme", got.GetTenantID())
		require.Len(t, got.Tags, 1)
		assert.Equal(t, "home", got.Tags[0].Name)
	})

	t.Run("missing row is nil without error", func(t *testing.T) {
		_, mock, store := newStore(t)

		mock.ExpectQuery(sqlLike(`FROM "public"."notes" AS "n"`, `"n"."id" = 8`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "title"}))

		got, err := store.FindOne(t.Context(), repository.Criteria{ID: int64(8)})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown relation fails before querying", func(t *testing.T) {
		_, _, store := newStore(t)

		_, err := store.FindOne(t.Context(), repository.Criteria{
			ID:       int64(7),
			Includes: entityquery.Query{}.Include("Comments"),
		})
		require.Error(t, err)
		assert.Equal(t, entityquery.CodeUnknownRelation, errx.AsErrorX(err).Code())
	})
}

func TestFindPage(t *testing.T) {
	t.Run("search sort and window", func(t *testing.T) {
		_, mock, store := newStore(t)

		mock.ExpectQuery(sqlLike(`SELECT count(*)`, `FROM "public"."notes" AS "n"`, `"n"."tenant_id" = 'acme'`, `"n"."title" ILIKE '%ops%'`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		mock.ExpectQuery(sqlLike(`FROM "public"."notes" AS "n"`, `ILIKE '%ops%'`, `ORDER BY "n"."title" DESC, "n"."id" ASC`, `LIMIT 2`, `OFFSET 1`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "title"}).
				AddRow(2, "acme", "ops b").
				AddRow(1, "acme", "ops a"))

		c := acmeOnly
		c.Search = "ops"
		c.SearchFields = []string{"title"}
		c.Sort = sorter.Make(sorter.Opt{F: "title", D: sorter.Desc}, sorter.Opt{F: "id", D: sorter.Asc})
		c.Limit = 2
		c.Offset = 1

		items, total, err := store.FindPage(t.Context(), c)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, items, 2)
		assert.Equal(t, "ops b", items[0].Title)
	})

	t.Run("empty result skips the window query", func(t *testing.T) {
		_, mock, store := newStore(t)

		mock.ExpectQuery(sqlLike(`SELECT count(*)`, `FROM "public"."notes"`)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		items, total, err := store.FindPage(t.Context(), repository.Criteria{Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)
	})
}

func TestWriteOps(t *testing.T) {
	t.Run("update and delete honor the restriction", func(t *testing.T) {
		db, mock, store := newStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(allOf(
			sqlLike(`UPDATE "public"."notes" AS "n"`, `SET "title" = 'renamed'`),
			sqlLike(`"n"."id" = 7`),
			sqlLike(`"n"."tenant_id" = 'acme'`),
			"!"+tenantInSet,
		)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(allOf(
			sqlLike(`DELETE FROM "public"."notes" AS "n"`),
			sqlLike(`"n"."id" = 9`),
			sqlLike(`"n"."tenant_id" = 'acme'`),
		)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		u := pg.NewUnitOfWork(db, logger.Nop(), nil)
		require.NoError(t, u.Stage(store.UpdateOp(&note{ID: 7, Title: "renamed"}, acmeOnly)))
		require.NoError(t, u.Stage(store.DeleteOp(&note{ID: 9}, acmeOnly)))

		n, err := u.Commit(t.Context())
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("restricted update leaves the tenant column alone", func(t *testing.T) {
		db, mock, store := newStore(t)

		mock.ExpectBegin()
		mock.ExpectExec(allOf(
			sqlLike(`UPDATE "public"."notes" AS "n"`, `SET "title" = 'planted'`),
			sqlLike(`"n"."tenant_id" = 'acme'`),
			"!"+tenantInSet,
			"!"+regexp.QuoteMeta(`'globex'`),
		)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		u := pg.NewUnitOfWork(db, logger.Nop(), nil)
		planted := &note{TenantModel: pg.TenantModel{TenantID: "globex"}, ID: 1, Title: "planted"}
		require.NoError(t, u.Stage(store.UpdateOp(planted, acmeOnly)))

		n, err := u.Commit(t.Context())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("insert conflict rolls back with the mapped code", func(t *testing.T) {
		db, mock, store := newStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(sqlLike(`INSERT INTO "public"."notes" AS "n"`, `RETURNING`)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "notes_title_key"})
		mock.ExpectRollback()

		u := pg.NewUnitOfWork(db, logger.Nop(), nil)
		require.NoError(t, u.Stage(store.InsertOp(&note{ID: 7, Title: "groceries"})))

		_, err := u.Commit(t.Context())
		require.Error(t, err)
		e := errx.AsErrorX(err)
		assert.Equal(t, errx.T_Conflict, e.Type())
		assert.Equal(t, "NOTE_TITLE_TAKEN", e.Code())
	})
}
