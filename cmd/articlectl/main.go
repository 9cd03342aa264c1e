// Command articlectl is the operator tool for the article store: seeding,
// listing, snapshots to MinIO and development tokens.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/articlehub/articlehub/internal/article"
	"github.com/articlehub/articlehub/internal/article/repository"
	"github.com/articlehub/articlehub/internal/config"
	"github.com/articlehub/articlehub/internal/database"
	"github.com/articlehub/articlehub/internal/identity"
	"github.com/articlehub/articlehub/internal/storage"
	"github.com/articlehub/articlehub/pkg/logger"
)

const usage = `usage: articlectl <command> [flags]

commands:
  seed [name...]   create missing articles (default: the built-in seed set)
  list             print every article with its upvote and comment counts
  snapshot         upload a JSON snapshot of all articles to MinIO
  token            mint an HS256 development token (needs JWT_SECRET or -secret)
`

// snapshotStore is what the snapshot command needs from MinIO.
type snapshotStore interface {
	storage.Uploader
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

type app struct {
	cfg *config.Config
	out io.Writer
	now func() time.Time

	openRepo     func(ctx context.Context) (repository.Repository, func(), error)
	openSnapshot func(ctx context.Context) (snapshotStore, error)
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(cfg, os.Stdout)
	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Fatalf("%v", err)
	}
}

func newApp(cfg *config.Config, out io.Writer) *app {
	a := &app{cfg: cfg, out: out, now: time.Now}
	a.openRepo = a.mongoRepo
	a.openSnapshot = func(ctx context.Context) (snapshotStore, error) {
		return storage.NewMinIOStorage(ctx, cfg.Snapshot)
	}
	return a
}

func (a *app) mongoRepo(ctx context.Context) (repository.Repository, func(), error) {
	if a.cfg.MongoDB.URI == "" {
		return nil, nil, errors.New("MONGODB_URI is not set")
	}
	client, err := database.ConnectMongo(ctx, a.cfg.MongoDB.URI, a.cfg.MongoDB.Timeout)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}
	repo := repository.NewMongoRepo(client.Database(a.cfg.MongoDB.Database).Collection(a.cfg.MongoDB.Collection))
	if err := repo.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return repo, closeFn, nil
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return flag.ErrHelp
	}
	switch args[0] {
	case "seed":
		return a.seed(ctx, args[1:])
	case "list":
		return a.list(ctx, args[1:])
	case "snapshot":
		return a.snapshot(ctx, args[1:])
	case "token":
		return a.token(args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	}
	fmt.Fprint(a.out, usage)
	return fmt.Errorf("unknown command %q", args[0])
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) seed(ctx context.Context, args []string) error {
	fs := a.flags("seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	names := fs.Args()
	if len(names) == 0 {
		names = article.DefaultSeed
	}
	repo, closeFn, err := a.openRepo(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	created, err := repo.Seed(ctx, names...)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	fmt.Fprintf(a.out, "seeded %d of %d articles\n", created, len(names))
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.flags("list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	repo, closeFn, err := a.openRepo(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tUPVOTES\tCOMMENTS")
	for _, art := range list {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", art.Name, art.Upvotes, len(art.Comments))
	}
	return tw.Flush()
}

func (a *app) snapshot(ctx context.Context, args []string) error {
	fs := a.flags("snapshot")
	expires := fs.Duration("url-expiry", time.Hour, "lifetime of the printed presigned URL (0 disables it)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	repo, closeFn, err := a.openRepo(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	list, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	store, err := a.openSnapshot(ctx)
	if err != nil {
		return err
	}
	key, err := storage.WriteSnapshot(ctx, store, list, a.now())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "uploaded %d articles to %s/%s\n", len(list), a.cfg.Snapshot.Bucket, key)
	if *expires > 0 {
		u, err := store.GetPresignedURL(ctx, key, *expires)
		if err != nil {
			return fmt.Errorf("presign: %w", err)
		}
		fmt.Fprintln(a.out, u)
	}
	return nil
}

func (a *app) token(args []string) error {
	fs := a.flags("token")
	secret := fs.String("secret", a.cfg.Identity.HMACSecret, "HMAC signing secret")
	uid := fs.String("uid", "", "subject uid (required)")
	email := fs.String("email", "", "email claim")
	name := fs.String("name", "", "name claim")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" {
		return errors.New("token: no secret (set JWT_SECRET or pass -secret)")
	}
	if *uid == "" {
		return errors.New("token: -uid is required")
	}
	if *ttl <= 0 {
		return errors.New("token: -ttl must be positive")
	}
	tok, err := identity.IssueHMACToken(*secret, identity.Identity{UID: *uid, Email: *email, Name: *name}, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, tok)
	return nil
}
