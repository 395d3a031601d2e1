package comments

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"

	"pulse/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
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

	schema, err := os.ReadFile("../database/schema.sql")
	if err != nil {
		return dbContainer.Terminate, err
	}
	if _, err := testPool.Exec(ctx, string(schema)); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func dbService(t *testing.T) database.Service {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	return database.NewWithPool(testPool)
}

func seedUserAndPost(t *testing.T, db database.Service, userID, postID string) {
	t.Helper()
	ctx := context.Background()

	if _, err := db.Exec(ctx,
		`INSERT INTO users (id, name, email) VALUES ($1,$2,$3) ON CONFLICT (id) DO NOTHING`,
		userID, "User "+userID, userID+"@example.com",
	); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := db.Exec(ctx,
		`INSERT INTO posts (id, author_id, content) VALUES ($1,$2,'seed') ON CONFLICT (id) DO NOTHING`,
		postID, userID,
	); err != nil {
		t.Fatalf("seed post: %v", err)
	}
}

func likeComment(t *testing.T, db database.Service, likeID, commentID, userID string) {
	t.Helper()
	if _, err := db.Exec(context.Background(),
		`INSERT INTO comment_likes (id, comment_id, user_id) VALUES ($1,$2,$3)`,
		likeID, commentID, userID,
	); err != nil {
		t.Fatalf("seed comment like: %v", err)
	}
}

func countRows(t *testing.T, db database.Service, q string, args ...any) int {
	t.Helper()
	var cnt int
	if err := db.QueryRow(context.Background(), q, args...).Scan(&cnt); err != nil {
		t.Fatalf("count (%s): %v", q, err)
	}
	return cnt
}

func TestDelete_RemovesSubtreeAndLikes(t *testing.T) {
	db := dbService(t)
	svc := NewService(db)
	ctx := context.Background()

	seedUserAndPost(t, db, "u-del", "p-del")
	seedUserAndPost(t, db, "u-del-2", "p-del")

	root, err := svc.Create(ctx, "u-del", CreateCommentRequest{PostID: "p-del", Content: "root"})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	reply, err := svc.Create(ctx, "u-del-2", CreateCommentRequest{PostID: "p-del", Content: "reply", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("create reply: %v", err)
	}
	deep, err := svc.Create(ctx, "u-del", CreateCommentRequest{PostID: "p-del", Content: "deep reply", ParentID: &reply.ID})
	if err != nil {
		t.Fatalf("create deep reply: %v", err)
	}

	likeComment(t, db, "cl-del-1", root.ID, "u-del-2")
	likeComment(t, db, "cl-del-2", reply.ID, "u-del")
	likeComment(t, db, "cl-del-3", deep.ID, "u-del-2")

	// only the root's author may delete, and the whole subtree goes with it:
	// replies authored by other users included
	if err := svc.Delete(ctx, "u-del", root.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got := countRows(t, db, `SELECT COUNT(*) FROM comments WHERE post_id = 'p-del'`); got != 0 {
		t.Errorf("expected no comments left on the post, got %d", got)
	}
	if got := countRows(t, db, `SELECT COUNT(*) FROM comment_likes WHERE comment_id = ANY($1)`,
		[]string{root.ID, reply.ID, deep.ID}); got != 0 {
		t.Errorf("expected no likes left on the subtree, got %d", got)
	}

	if _, err := svc.Thread(ctx, deep.ID); !errors.Is(err, ErrCommentNotFound) {
		t.Errorf("expected deleted reply to be unfindable, got %v", err)
	}
}

func TestDelete_WideSubtree(t *testing.T) {
	db := dbService(t)
	svc := NewService(db)
	ctx := context.Background()

	seedUserAndPost(t, db, "u-wide", "p-wide")

	root, err := svc.Create(ctx, "u-wide", CreateCommentRequest{PostID: "p-wide", Content: "root"})
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	// several siblings, each with a child of its own
	for i := 0; i < 4; i++ {
		child, err := svc.Create(ctx, "u-wide", CreateCommentRequest{
			PostID: "p-wide", Content: fmt.Sprintf("child %d", i), ParentID: &root.ID,
		})
		if err != nil {
			t.Fatalf("create child %d: %v", i, err)
		}
		if _, err := svc.Create(ctx, "u-wide", CreateCommentRequest{
			PostID: "p-wide", Content: fmt.Sprintf("grandchild %d", i), ParentID: &child.ID,
		}); err != nil {
			t.Fatalf("create grandchild %d: %v", i, err)
		}
	}

	if got := countRows(t, db, `SELECT COUNT(*) FROM comments WHERE post_id = 'p-wide'`); got != 9 {
		t.Fatalf("expected 9 comments before delete, got %d", got)
	}

	if err := svc.Delete(ctx, "u-wide", root.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got := countRows(t, db, `SELECT COUNT(*) FROM comments WHERE post_id = 'p-wide'`); got != 0 {
		t.Errorf("expected empty post after root delete, got %d comments", got)
	}
}

func TestDelete_OnlyOwner(t *testing.T) {
	db := dbService(t)
	svc := NewService(db)
	ctx := context.Background()

	seedUserAndPost(t, db, "u-own", "p-own")
	seedUserAndPost(t, db, "u-intruder", "p-own")

	c, err := svc.Create(ctx, "u-own", CreateCommentRequest{PostID: "p-own", Content: "mine"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, "u-intruder", c.ID); !errors.Is(err, ErrNotCommentOwner) {
		t.Fatalf("expected ErrNotCommentOwner, got %v", err)
	}
	if got := countRows(t, db, `SELECT COUNT(*) FROM comments WHERE id = $1`, c.ID); got != 1 {
		t.Error("comment must survive a rejected delete")
	}
}

func TestCreate_ParentMustShareThePost(t *testing.T) {
	db := dbService(t)
	svc := NewService(db)
	ctx := context.Background()

	seedUserAndPost(t, db, "u-mis", "p-mis-1")
	seedUserAndPost(t, db, "u-mis", "p-mis-2")

	parent, err := svc.Create(ctx, "u-mis", CreateCommentRequest{PostID: "p-mis-1", Content: "on post 1"})
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}

	_, err = svc.Create(ctx, "u-mis", CreateCommentRequest{PostID: "p-mis-2", Content: "wrong post", ParentID: &parent.ID})
	if !errors.Is(err, ErrParentMismatch) {
		t.Fatalf("expected ErrParentMismatch, got %v", err)
	}
}
