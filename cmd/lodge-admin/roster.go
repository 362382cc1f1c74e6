package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lodgeworks/lodge-api/config"
	"github.com/lodgeworks/lodge-api/internal/bootstrap"
)

const (
	rosterKeyPrefix   = "roster:record:"
	rosterScanBatch   = 1000
	rosterDeleteBatch = 100
)

var errRedisNotConfigured = errors.New("redis not configured")

type rosterListOptions struct {
	Timeout  time.Duration
	RecordID string
	Limit    int
}

type rosterClearOptions struct {
	Timeout  time.Duration
	RecordID string
	All      bool
	DryRun   bool
	Yes      bool
}

func runListRosterCache(cmdCtx *commandContext, args []string) error {
	opts, err := parseRosterListFlags(args)
	if err != nil {
		return err
	}

	return withRedis(cmdCtx, opts.Timeout, func(ctx context.Context, client redis.UniversalClient) error {
		entries, err := collectRosterEntries(ctx, client, rosterPattern(opts.RecordID), opts.Limit)
		if err != nil {
			return err
		}
		return printRosterEntries(entries)
	})
}

func runClearRosterCache(cmdCtx *commandContext, args []string) error {
	opts, err := parseRosterClearFlags(args)
	if err != nil {
		return err
	}

	if confirmErr := confirmAction(rosterClearConfirmOptions{opts: opts}, "clear roster cache entries"); confirmErr != nil {
		return confirmErr
	}

	return withRedis(cmdCtx, opts.Timeout, func(ctx context.Context, client redis.UniversalClient) error {
		deleted, err := purgeRosterEntries(&purgeRosterRequest{
			Ctx:     ctx,
			Client:  client,
			Logger:  cmdCtx.Logger,
			Pattern: rosterPattern(opts.RecordID),
			DryRun:  opts.DryRun,
		})
		if err != nil {
			return err
		}
		if opts.DryRun {
			return writef(os.Stdout, "Dry run: %d roster cache entries matched\n", deleted)
		}
		return writef(os.Stdout, "Deleted %d roster cache entries\n", deleted)
	})
}

func parseRosterListFlags(args []string) (rosterListOptions, error) {
	fs := flag.NewFlagSet("list-roster-cache", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := rosterListOptions{
		Timeout: time.Minute,
		Limit:   100,
	}

	fs.DurationVar(&opts.Timeout, "timeout", time.Minute, "Maximum duration to wait for the scan to complete")
	fs.StringVar(&opts.RecordID, "record", "", "Limit output to a single record id")
	fs.IntVar(&opts.Limit, "limit", 100, "Maximum number of entries to display (0 for no limit)")

	if err := fs.Parse(args); err != nil {
		return rosterListOptions{}, err
	}

	if opts.Timeout <= 0 {
		return rosterListOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.Limit < 0 {
		return rosterListOptions{}, errors.New("--limit cannot be negative")
	}

	return opts, nil
}

func parseRosterClearFlags(args []string) (rosterClearOptions, error) {
	fs := flag.NewFlagSet("clear-roster-cache", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := rosterClearOptions{
		Timeout: time.Minute,
	}

	fs.DurationVar(&opts.Timeout, "timeout", time.Minute, "Maximum duration to wait for the purge to complete")
	fs.StringVar(&opts.RecordID, "record", "", "Clear the entry for a single record id")
	fs.BoolVar(&opts.All, "all", false, "Clear every roster cache entry")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Report matching entries without deleting them")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return rosterClearOptions{}, err
	}

	if opts.Timeout <= 0 {
		return rosterClearOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.RecordID == "" && !opts.All {
		return rosterClearOptions{}, errors.New("pass --record <id> or --all to select entries to clear")
	}
	if opts.RecordID != "" && opts.All {
		return rosterClearOptions{}, errors.New("--record and --all are mutually exclusive")
	}

	return opts, nil
}

type rosterClearConfirmOptions struct {
	opts rosterClearOptions
}

func (r rosterClearConfirmOptions) IsDryRun() bool { return r.opts.DryRun }
func (r rosterClearConfirmOptions) IsYes() bool    { return r.opts.Yes }
func (r rosterClearConfirmOptions) GetWarning() string {
	return "WARNING: clearing roster cache entries forces reverse roster lookups to hit the database until repopulated."
}

func (r rosterClearConfirmOptions) GetTarget() string {
	if r.opts.All {
		return "all cached roster entries"
	}
	return fmt.Sprintf("roster cache entry for record %q", r.opts.RecordID)
}

func rosterPattern(recordID string) string {
	if recordID == "" {
		return rosterKeyPrefix + "*"
	}
	return rosterKeyPrefix + recordID
}

// withRedis connects a Redis client for the duration of one command.
func withRedis(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, redis.UniversalClient) error,
) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := connectRedisClient(cmdCtx.Logger, &cmdCtx.Config.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", cerr)
		}
	}()

	return f(ctx, client)
}

//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectRedisClient(logger *slog.Logger, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	if !hasRedisConfig(cfg) {
		return nil, errRedisNotConfigured
	}
	client, err := bootstrap.ConnectRedis(bootstrap.DatabaseConfig{RedisConfig: *cfg, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

func hasRedisConfig(cfg *config.RedisConfig) bool {
	if cfg == nil {
		return false
	}
	if cfg.UseCluster {
		return len(cfg.ClusterNodes) > 0 || cfg.URI != ""
	}
	if cfg.UseSentinel {
		return len(cfg.SentinelNodes) > 0
	}
	return cfg.URI != ""
}

type rosterEntry struct {
	RecordID string
	LodgeID  string
	TTL      time.Duration
}

func collectRosterEntries(
	ctx context.Context,
	client redis.UniversalClient,
	pattern string,
	limit int,
) ([]rosterEntry, error) {
	iter := client.Scan(ctx, 0, pattern, rosterScanBatch).Iterator()

	entries := make([]rosterEntry, 0)
	for iter.Next(ctx) {
		key := iter.Val()

		lodgeID, err := client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			// Key expired between scan and read.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read roster key %q: %w", key, err)
		}

		ttl, err := client.TTL(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("read roster key ttl %q: %w", key, err)
		}

		entries = append(entries, rosterEntry{
			RecordID: key[len(rosterKeyPrefix):],
			LodgeID:  lodgeID,
			TTL:      ttl,
		})
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan roster keys: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RecordID < entries[j].RecordID })
	return entries, nil
}

func printRosterEntries(entries []rosterEntry) error {
	if len(entries) == 0 {
		return writeln(os.Stdout, "No roster cache entries found")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if err := writeln(w, "RECORD\tLODGE\tTTL"); err != nil {
		return fmt.Errorf("print roster header: %w", err)
	}
	for _, e := range entries {
		if err := writef(w, "%s\t%s\t%s\n", e.RecordID, e.LodgeID, renderTTL(e.TTL)); err != nil {
			return fmt.Errorf("print roster entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush roster table: %w", err)
	}
	return writef(os.Stdout, "\n%d entries\n", len(entries))
}

type purgeRosterRequest struct {
	Ctx     context.Context
	Client  redis.UniversalClient
	Logger  *slog.Logger
	Pattern string
	DryRun  bool
}

func purgeRosterEntries(req *purgeRosterRequest) (int, error) {
	if req == nil {
		return 0, errors.New("purge request is required")
	}

	req.Logger.Info("scanning redis", "pattern", req.Pattern, "dry_run", req.DryRun)

	iter := req.Client.Scan(req.Ctx, 0, req.Pattern, rosterScanBatch).Iterator()
	keys := make([]string, 0)
	for iter.Next(req.Ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("scan roster keys: %w", err)
	}
	if len(keys) == 0 || req.DryRun {
		return len(keys), nil
	}

	for start := 0; start < len(keys); start += rosterDeleteBatch {
		end := min(start+rosterDeleteBatch, len(keys))
		if err := req.Client.Del(req.Ctx, keys[start:end]...).Err(); err != nil {
			return 0, fmt.Errorf("delete roster keys: %w", err)
		}
	}

	req.Logger.Info("roster cache entries deleted", "count", len(keys))
	return len(keys), nil
}
