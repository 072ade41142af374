package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/campuskit/users-service/config"
	"github.com/campuskit/users-service/pkg/helpers"
)

// app-level container to share constructed components across packages.
// Router modules auto-wire from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	esClient    *elasticsearch.Client
	eventsPub   *helpers.RabbitPublisher
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }

func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger  { return logger }

func SetPGPool(p *pgxpool.Pool) { pgPool = p }
func GetPGPool() *pgxpool.Pool  { return pgPool }

func SetRedis(r *redis.Client) { redisClient = r }
func GetRedis() *redis.Client  { return redisClient }

func SetES(c *elasticsearch.Client) { esClient = c }
func GetES() *elasticsearch.Client  { return esClient }

func SetEvents(p *helpers.RabbitPublisher) { eventsPub = p }
func GetEvents() *helpers.RabbitPublisher  { return eventsPub }
