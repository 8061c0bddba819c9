package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/portrush/teesheet/internal/adapters/database/redis/maintenance"
)

type Client struct {
	Maintenance *maintenance.Storage

	raw *redis.Client
}

type Options struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func New(opts Options) (*Client, error) {
	maintenanceStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := maintenanceStorage.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping maintenance storage: %w", err)
	}

	return &Client{
		Maintenance: maintenance.NewStorage(maintenanceStorage),
		raw:         maintenanceStorage,
	}, nil
}

func (c *Client) Close() error {
	return c.raw.Close()
}
