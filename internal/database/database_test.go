package database

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	// testing.Short panics if consulted before flags are parsed
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	teardown, err := mustStartPostgresContainer()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Printf("could not teardown postgres container: %v", err)
		}
	}

	os.Exit(code)
}

func mustStartPostgresContainer() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	ctx := context.Background()

	dbContainer, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("pulse_test"),
		postgres.WithUsername("pulse"),
		postgres.WithPassword("pulse"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := dbContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	schema, err := os.ReadFile("schema.sql")
	if err != nil {
		return dbContainer.Terminate, err
	}
	if _, err := testPool.Exec(ctx, string(schema)); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func testService(t *testing.T) Service {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	return NewWithPool(testPool)
}

func TestHealth(t *testing.T) {
	srv := testService(t)

	stats := srv.Health()
	if stats["status"] != "up" {
		t.Fatalf("expected status up, got %s (%s)", stats["status"], stats["error"])
	}
	if stats["total_conns"] == "" {
		t.Error("expected pool statistics in health report")
	}
}

func TestExecAndQueryRow(t *testing.T) {
	srv := testService(t)
	ctx := context.Background()

	if _, err := srv.Exec(ctx,
		`INSERT INTO users (id, name, email) VALUES ($1,$2,$3) ON CONFLICT (id) DO NOTHING`,
		"u-db-1", "DB Tester", "db-tester@example.com",
	); err != nil {
		t.Fatalf("insert user: %v", err)
	}

	var name string
	if err := srv.QueryRow(ctx, `SELECT name FROM users WHERE id=$1`, "u-db-1").Scan(&name); err != nil {
		t.Fatalf("select user: %v", err)
	}
	if name != "DB Tester" {
		t.Errorf("expected DB Tester, got %s", name)
	}
}

func TestLikeUniqueConstraint(t *testing.T) {
	srv := testService(t)
	ctx := context.Background()

	mustExec(t, srv, `INSERT INTO users (id, name, email) VALUES ('u-like','Liker','liker@example.com') ON CONFLICT DO NOTHING`)
	mustExec(t, srv, `INSERT INTO posts (id, author_id, content) VALUES ('p-like','u-like','hi') ON CONFLICT DO NOTHING`)

	ins := `INSERT INTO post_likes (id, post_id, user_id, created_at)
	        VALUES ($1,'p-like','u-like',$2) ON CONFLICT (post_id, user_id) DO NOTHING`

	res, err := srv.Exec(ctx, ins, "l-1", time.Now())
	if err != nil {
		t.Fatalf("first like: %v", err)
	}
	if res.RowsAffected() != 1 {
		t.Fatalf("expected first like inserted, affected %d", res.RowsAffected())
	}

	// second insert for the same (post, user) pair has to be a no-op
	res, err = srv.Exec(ctx, ins, "l-2", time.Now())
	if err != nil {
		t.Fatalf("second like: %v", err)
	}
	if res.RowsAffected() != 0 {
		t.Fatalf("expected conflict to suppress duplicate like, affected %d", res.RowsAffected())
	}
}

func TestPostCascadeDelete(t *testing.T) {
	srv := testService(t)
	ctx := context.Background()

	mustExec(t, srv, `INSERT INTO users (id, name, email) VALUES ('u-cas','Cascade','cascade@example.com') ON CONFLICT DO NOTHING`)
	mustExec(t, srv, `INSERT INTO posts (id, author_id, content) VALUES ('p-cas','u-cas','doomed')`)
	mustExec(t, srv, `INSERT INTO comments (id, post_id, author_id, content) VALUES ('c-cas','p-cas','u-cas','on doomed post')`)
	mustExec(t, srv, `INSERT INTO post_likes (id, post_id, user_id) VALUES ('pl-cas','p-cas','u-cas')`)
	mustExec(t, srv, `INSERT INTO comment_likes (id, comment_id, user_id) VALUES ('cl-cas','c-cas','u-cas')`)

	mustExec(t, srv, `DELETE FROM posts WHERE id='p-cas'`)

	for _, q := range []string{
		`SELECT COUNT(*) FROM comments WHERE post_id='p-cas'`,
		`SELECT COUNT(*) FROM post_likes WHERE post_id='p-cas'`,
		`SELECT COUNT(*) FROM comment_likes WHERE comment_id='c-cas'`,
	} {
		var cnt int
		if err := srv.QueryRow(ctx, q).Scan(&cnt); err != nil {
			t.Fatalf("count: %v", err)
		}
		if cnt != 0 {
			t.Errorf("expected cascade to empty %q, got %d rows", q, cnt)
		}
	}
}

func mustExec(t *testing.T, srv Service, sql string, args ...any) {
	t.Helper()
	if _, err := srv.Exec(context.Background(), sql, args...); err != nil {
		t.Fatalf("exec %s: %v", sql, err)
	}
}
