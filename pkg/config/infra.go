package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Port        string `yaml:"port"`
	CORSOrigins string `yaml:"cors_origins"`
	BodyLimitMB int    `yaml:"body_limit_mb"`
	Debug       bool   `yaml:"debug"`
}

// DatabaseConfig is optional: without a host, records are kept in memory.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	ProgressTTL time.Duration `yaml:"progress_ttl"`
}

func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type StorageConfig struct {
	Mode      string `yaml:"mode"`
	UploadDir string `yaml:"upload_dir"`
	AWSRegion string `yaml:"aws_region"`
	AWSBucket string `yaml:"aws_bucket"`
	Prefix    string `yaml:"prefix"`
}

const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

func defaultServerConfig() ServerConfig {
	return ServerConfig{Port: "8080", CORSOrigins: "*", BodyLimitMB: 50}
}

func defaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Port:            5432,
		User:            "postgres",
		Name:            "pagelift",
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

func defaultRedisConfig() RedisConfig {
	return RedisConfig{Host: "localhost", Port: 6379, ProgressTTL: 24 * time.Hour}
}

func defaultStorageConfig() StorageConfig {
	return StorageConfig{Mode: StorageLocal, UploadDir: "./data", AWSRegion: "us-east-1"}
}

func (c *ServerConfig) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.CORSOrigins = getEnv("CORS_ORIGINS", c.CORSOrigins)
	c.BodyLimitMB = getEnvInt("BODY_LIMIT_MB", c.BodyLimitMB)
	c.Debug = getEnvBool("DEBUG", c.Debug)
}

func (c *DatabaseConfig) applyEnv() {
	c.Host = getEnv("DB_HOST", c.Host)
	c.Port = getEnvInt("DB_PORT", c.Port)
	c.User = getEnv("DB_USER", c.User)
	c.Password = getEnv("DB_PASSWORD", c.Password)
	c.Name = getEnv("DB_NAME", c.Name)
	c.SSLMode = getEnv("DB_SSLMODE", c.SSLMode)
	c.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", c.MaxOpenConns)
	c.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", c.MaxIdleConns)
	c.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", c.ConnMaxLifetime)
}

func (c *RedisConfig) applyEnv() {
	c.Host = getEnv("REDIS_HOST", c.Host)
	c.Port = getEnvInt("REDIS_PORT", c.Port)
	c.Password = getEnv("REDIS_PASSWORD", c.Password)
	c.DB = getEnvInt("REDIS_DB", c.DB)
	c.ProgressTTL = getEnvDuration("PROGRESS_TTL", c.ProgressTTL)
}

func (c *StorageConfig) applyEnv() {
	c.Mode = getEnv("STORAGE_MODE", c.Mode)
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.AWSBucket = getEnv("AWS_BUCKET", c.AWSBucket)
	c.Prefix = getEnv("STORAGE_PREFIX", c.Prefix)
}
