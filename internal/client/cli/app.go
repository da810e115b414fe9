package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/iotadmin/internal/client/client"
	"github.com/dmitrijs2005/iotadmin/internal/client/config"
	"github.com/dmitrijs2005/iotadmin/internal/client/firmware"
	"github.com/dmitrijs2005/iotadmin/internal/client/models"
	"github.com/dmitrijs2005/iotadmin/internal/client/services"
	"github.com/dmitrijs2005/iotadmin/internal/client/session"
	"github.com/dmitrijs2005/iotadmin/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	reader *bufio.Reader
	out    io.Writer

	session   *session.Session
	router    *router
	auth      services.AuthService
	users     services.UserService
	registry  *firmware.Registry
	board     *firmware.Board
	intake    *firmware.Intake
	progress  *firmware.Progress
	uploader  *firmware.Uploader
	lifecycle *firmware.Controller
	watcher   *firmware.DropWatcher
	sinkName  string

	uploads sync.WaitGroup

	mu        sync.Mutex
	lastUsers []models.User
}

// NewApp opens the local database, builds the REST client around a fresh
// session and wires the firmware components.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := client.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		logger.Error(ctx, "error initializing database", "dsn", c.DatabaseDSN, "error", err)
		return nil, err
	}

	repos := client.NewRepositories(db)
	sess := session.New(session.NewMetadataStore(repos.Metadata), logger)

	api, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, sess.TokenSource())
	if err != nil {
		db.Close()
		return nil, err
	}

	sink, sinkName, err := newSink(ctx, c)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := newApp(c, logger, sess, api, repos, sink)
	a.db = db
	a.sinkName = sinkName
	return a, nil
}

func newSink(ctx context.Context, c *config.Config) (firmware.Sink, string, error) {
	if !c.S3.Enabled() {
		return firmware.NewDirSink(c.DownloadDir), c.DownloadDir, nil
	}
	s, err := firmware.NewS3Sink(ctx, firmware.S3Config{
		Bucket:       c.S3.Bucket,
		Region:       c.S3.Region,
		BaseEndpoint: c.S3.BaseEndpoint,
		AccessKey:    c.S3.AccessKey,
		SecretKey:    c.S3.SecretKey,
		Prefix:       c.S3.Prefix,
	})
	if err != nil {
		return nil, "", err
	}
	return s, "s3://" + c.S3.Bucket, nil
}

// newApp assembles the components around an already built API client.
func newApp(c *config.Config, logger logging.Logger, sess *session.Session, api client.Client, repos *client.Repositories, sink firmware.Sink) *App {
	a := &App{
		config:  c,
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		session: sess,
		router:  newRouter(session.ScreenEntry),
	}
	sess.SetNavigator(a.router)

	a.board = firmware.NewBoard()
	a.intake = firmware.NewIntake(a.board)
	a.progress = firmware.NewProgress()
	a.registry = firmware.NewRegistry(api, sess, repos.Firmwares, repos.Metadata, logger)
	a.uploader = firmware.NewUploader(api, sess, a.registry, a.intake, a.progress, a.board, logger)
	a.lifecycle = firmware.NewController(api, sess, a.registry, a.board, sink, logger)

	sess.OnClose(a.lifecycle.CancelDelete)

	a.auth = services.NewAuthService(api, sess, a.registry)
	a.users = services.NewUserService(api, sess)

	if c.DropDir != "" {
		a.watcher = firmware.NewDropWatcher(c.DropDir, c.DropSettle, a.intake, logger)
		a.watcher.OnDrop(a.onDrop)
	}

	a.board.OnChange(a.onNotice)
	a.progress.OnChange(newProgressPrinter())

	return a
}

// Run restores the previous session and cached firmware list, starts the drop
// watcher and blocks in the REPL until the user exits. Transfers still in
// progress are awaited before returning.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.initSignalHandler(ctx, cancel)

	printlnFn("IoT admin console (type 'help' for commands)")

	if err := a.session.Restore(ctx); err != nil {
		a.logger.Warn(ctx, "failed to restore session", "error", err)
	}
	if err := a.registry.Restore(ctx); err != nil {
		a.logger.Warn(ctx, "failed to restore firmware cache", "error", err)
	}

	watchCtx, stopWatcher := context.WithCancel(ctx)
	var watchers sync.WaitGroup
	if a.watcher != nil {
		watchers.Add(1)
		go func() {
			defer watchers.Done()
			if err := a.watcher.Run(watchCtx); err != nil {
				a.logger.Error(ctx, "drop watcher stopped", "dir", a.watcher.Dir(), "error", err)
			}
		}()
		printlnFn("Drop zone:", a.watcher.Dir())
	}

	if a.session.Authenticated() {
		_ = a.Users(ctx)
	} else {
		_ = a.Login(ctx, "")
	}

	runREPL(ctx, a, a.status, a.reader)

	stopWatcher()
	watchers.Wait()

	if a.uploader.InFlight() {
		printlnFn("Waiting for the upload to finish...")
	}
	a.uploads.Wait()
	a.lifecycle.Wait()
	return nil
}

// initSignalHandler cancels ctx on SIGINT, SIGTERM or SIGQUIT. The REPL
// stops at the next prompt and Run still waits for running transfers.
func (a *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			printlnFn("Interrupted, press Enter to leave")
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Close releases the local database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *App) Authenticated() bool {
	return a.session.Authenticated()
}

// status renders the prompt decoration: operator, screen, selection and
// upload progress.
func (a *App) status() string {
	var parts []string

	if claims, ok := a.session.Claims(); ok && claims.Subject != "" {
		parts = append(parts, claims.Subject)
	}
	parts = append(parts, string(a.router.Current()))

	if a.intake.DragActive() {
		parts = append(parts, "dropping...")
	} else if sel := a.intake.Selected(); sel != nil && a.router.Current() == session.ScreenFirmware {
		parts = append(parts, sel.Name)
	}
	if a.uploader.InFlight() {
		parts = append(parts, fmt.Sprintf("upload %d%%", a.progress.Value()))
	}
	if _, ok := a.lifecycle.PendingDelete(); ok {
		parts = append(parts, "confirm delete?")
	}

	return "(" + strings.Join(parts, " ") + ")"
}

func (a *App) onNotice(n firmware.Notice, ok bool) {
	if !ok {
		return
	}
	printlnFn(fmt.Sprintf("[%s] %s", n.Kind, n.Text))
}

func (a *App) onDrop(art *firmware.Artifact, err error) {
	if err != nil || art == nil {
		return
	}
	printlnFn(fmt.Sprintf("Dropped %s (%s)", art.Name, firmware.FormatSize(art.Size)))
}

// newProgressPrinter reports upload progress in quarter steps so the console
// is not flooded while the prompt still shows the exact value.
func newProgressPrinter() func(int) {
	var mu sync.Mutex
	last := 0
	return func(v int) {
		mu.Lock()
		defer mu.Unlock()
		if v == 0 {
			last = 0
			return
		}
		step := v / 25
		if step <= last {
			return
		}
		last = step
		printlnFn(fmt.Sprintf("Uploading... %d%%", v))
	}
}
