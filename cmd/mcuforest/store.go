package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/viettran-edgeAI/MCU-sub008/forest"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/config"
	"github.com/viettran-edgeAI/MCU-sub008/tree"
	"github.com/viettran-edgeAI/MCU-sub008/tree/miniostore"
	"github.com/viettran-edgeAI/MCU-sub008/tree/redisstore"
	"gopkg.in/redis.v5"
)

const defaultRedisPrefix = "mcuforest:"

/*
openStore returns the tree.Store the storage config points to:

  - redis://host:port/db?prefix=p keeps blobs on a Redis DB, under the
    keys prefixed with p;
  - s3://bucket/prefix keeps blobs as objects of a bucket of the
    configured S3 compatible endpoint;
  - anything else is taken as a directory path.
*/
func openStore(sc config.StorageConfig, logger *slog.Logger) (tree.Store, error) {
	location := sc.Model
	switch {
	case strings.HasPrefix(location, "redis://"):
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL %s: %v", location, err)
		}
		db := 0
		if p := strings.Trim(u.Path, "/"); p != "" {
			db, err = strconv.Atoi(p)
			if err != nil {
				return nil, fmt.Errorf("parsing redis DB number %q: %v", p, err)
			}
		}
		password := sc.Password
		if pw, ok := u.User.Password(); ok {
			password = pw
		}
		prefix := u.Query().Get("prefix")
		if prefix == "" {
			prefix = defaultRedisPrefix
		}
		rc := redis.NewClient(&redis.Options{Addr: u.Host, Password: password, DB: db})
		if err := rc.Ping().Err(); err != nil {
			rc.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %v", u.Host, err)
		}
		return redisstore.New(rc, prefix), nil
	case strings.HasPrefix(location, "s3://"):
		bucketAndPrefix := strings.SplitN(strings.TrimPrefix(location, "s3://"), "/", 2)
		opts := miniostore.Options{
			Endpoint:        sc.Endpoint,
			AccessKeyID:     sc.AccessKeyID,
			SecretAccessKey: sc.SecretAccessKey,
			Bucket:          bucketAndPrefix[0],
			UseSSL:          sc.UseSSL,
			Logger:          logger,
		}
		if len(bucketAndPrefix) == 2 {
			opts.Prefix = bucketAndPrefix[1]
		}
		if opts.Endpoint == "" {
			return nil, fmt.Errorf("no endpoint configured for the S3 store at %s", location)
		}
		return miniostore.New(opts)
	}
	if location == "" {
		return nil, fmt.Errorf("no model location configured")
	}
	return tree.NewDirStore(location)
}

// saveForest saves f on the configured model store.
func (rcc *rootCmdConfig) saveForest(ctx context.Context, f *forest.Forest) error {
	s, err := openStore(rcc.cfg.Storage, rcc.logger)
	if err != nil {
		return err
	}
	defer s.Close()
	// an interrupted run still gets its best forest saved
	if err = f.Save(context.WithoutCancel(ctx), s); err != nil {
		return fmt.Errorf("saving forest to %s: %v", rcc.cfg.Storage.Model, err)
	}
	rcc.logger.Info("forest saved", "model", rcc.cfg.Storage.Model, "trees", len(f.Trees()))
	return nil
}

// loadForest loads the forest saved on the configured model store.
func (rcc *rootCmdConfig) loadForest(ctx context.Context) (*forest.Forest, error) {
	s, err := openStore(rcc.cfg.Storage, rcc.logger)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	f, err := forest.Load(ctx, s, forest.WithLogger(rcc.logger))
	if err != nil {
		return nil, fmt.Errorf("loading forest from %s: %v", rcc.cfg.Storage.Model, err)
	}
	return f, nil
}
