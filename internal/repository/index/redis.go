package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jgivc/dupetracker/internal/common"
	"github.com/jgivc/dupetracker/internal/entity"
	"github.com/redis/go-redis/v9"
)

// The index lives under two versioned key sets. Writers fill the standby
// version, then flip the active-version pointer, so readers always see a
// complete index and never a half-written one.
const (
	keyVersion1      = "v1"
	keyVersion2      = "v2"
	keyActiveVersion = "dt:av"    // STRING. Holds v1 or v2.
	keyFiles         = "dt:files" // LIST. dt:files:<ver>, record JSON in scan order.
	keyTotal         = "dt:total" // STRING. dt:total:<ver>, record count.

	keyEmpty     = ""
	keySeparator = ":"
)

type redisRepository struct {
	ver atomic.Value
	cl  *redis.Client
	log *slog.Logger
}

func NewRedisRepository(cl *redis.Client, log *slog.Logger) (*redisRepository, error) {
	repo := &redisRepository{
		cl:  cl,
		log: log.With(slog.String("item", "RedisIndexRepository")),
	}

	ver, _, err := repo.getVersions(context.Background())
	if err != nil {
		return nil, fmt.Errorf("cannot get active version: %w", err)
	}

	repo.ver.Store(ver)

	return repo, nil
}

func (r *redisRepository) Save(ctx context.Context, index *entity.FileIndex) error {
	verActive, verStandby, err := r.getVersions(ctx)
	if err != nil {
		r.log.Error("Cannot get standby data version")

		return fmt.Errorf("cannot get active version: %w", err)
	}
	r.log.Info("Save new index", slog.String("active_version", verActive), slog.String("standby_version", verStandby))

	if err := r.clearOldData(ctx, verStandby); err != nil {
		r.log.Error("Cannot clear old data", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot clear old data: %w", err)
	}

	if err := r.saveNewData(ctx, verStandby, index); err != nil {
		r.log.Error("Cannot save new data", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot save new data: %w", err)
	}

	if _, err := r.cl.Set(ctx, keyActiveVersion, verStandby, 0).Result(); err != nil {
		r.log.Error("Cannot switch to new version", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot switch to new version: %w", err)
	}

	r.ver.Store(verStandby)

	return nil
}

func (r *redisRepository) Load(ctx context.Context) (*entity.FileIndex, error) {
	ver := r.getActiveVersion()

	total, err := r.cl.Get(ctx, getKey(keyTotal, ver)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrIndexNotFound
		}

		return nil, fmt.Errorf("cannot get index size: %w", err)
	}

	count, err := strconv.Atoi(total)
	if err != nil {
		return nil, fmt.Errorf("%w: bad record count %q", common.ErrIndexCorrupt, total)
	}

	items, err := r.cl.LRange(ctx, getKey(keyFiles, ver), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get index records: %w", err)
	}

	records := make([]entity.FileRecord, 0, len(items))
	for _, item := range items {
		var rec entity.FileRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrIndexCorrupt, err)
		}

		records = append(records, rec)
	}

	if count != len(records) {
		return nil, fmt.Errorf("%w: count %d does not match %d records", common.ErrIndexCorrupt, count, len(records))
	}

	return &entity.FileIndex{TotalFiles: count, Files: records}, nil
}

func (r *redisRepository) saveNewData(ctx context.Context, ver string, index *entity.FileIndex) error {
	log := r.log.With(slog.String("op", "saveNewData"), slog.String("version", ver))
	log.Info("Save new data", slog.Int("total_files", index.TotalFiles))

	pipe := r.cl.Pipeline()
	key := getKey(keyFiles, ver)

	for i := range index.Files {
		data, err := json.Marshal(&index.Files[i])
		if err != nil {
			return fmt.Errorf("cannot marshal record: %w", err)
		}

		pipe.RPush(ctx, key, data)
	}

	pipe.Set(ctx, getKey(keyTotal, ver), index.TotalFiles, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot save new data: %w", err)
	}

	return nil
}

func (r *redisRepository) clearOldData(ctx context.Context, ver string) error {
	log := r.log.With(slog.String("op", "clearOldData"), slog.String("version", ver))
	log.Info("Clear old data")

	if _, err := r.cl.Del(ctx, getKey(keyFiles, ver), getKey(keyTotal, ver)).Result(); err != nil {
		return fmt.Errorf("error deleting keys: %w", err)
	}

	return nil
}

/*
getVersions return active and standby versions
*/
func (r *redisRepository) getVersions(ctx context.Context) (string, string, error) {
	ver, err := r.cl.Get(ctx, keyActiveVersion).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return keyEmpty, keyEmpty, fmt.Errorf("cannot get active version: %w", err)
	}

	switch ver {
	case keyVersion1:
		return keyVersion1, keyVersion2, nil
	case keyVersion2:
		return keyVersion2, keyVersion1, nil
	}

	r.log.Info("Active version key is not found. Try to set new one", slog.String("version", keyVersion1))

	if _, err = r.cl.Set(ctx, keyActiveVersion, keyVersion1, 0).Result(); err != nil {
		return keyEmpty, keyEmpty, fmt.Errorf("cannot set version key: %w", err)
	}

	return keyVersion1, keyVersion2, nil
}

func (r *redisRepository) getActiveVersion() string {
	return r.ver.Load().(string)
}

func getKey(keys ...string) string {
	return strings.Join(keys, keySeparator)
}
