package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env           string              `yaml:"env" env:"ENV" env-default:"local"`
	HTTP          HTTPConfig          `yaml:"http"`
	CMS           CMSConfig           `yaml:"cms"`
	Registrations RegistrationsConfig `yaml:"registrations"`
	Redis         RedisConf           `yaml:"redis"`
	Postgres      PostgresConfig      `yaml:"postgres"`
	Admin         AdminConfig         `yaml:"admin"`
	Site          SiteConfig          `yaml:"site"`
	Jobs          JobsConfig          `yaml:"jobs"`
	Files         FilesConfig         `yaml:"files"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
}

type HTTPConfig struct {
	Host         string        `yaml:"host" env:"HTTP_HOST"`
	Port         string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"15s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"60s"`
	AllowOrigins []string      `yaml:"allow_origins" env:"HTTP_ALLOW_ORIGINS" env-separator:","`
}

type CMSConfig struct {
	BaseURL     string        `yaml:"base_url" env:"CMS_BASE_URL" env-required:"true"`
	MediaURL    string        `yaml:"media_url" env:"CMS_MEDIA_URL"`
	APIToken    string        `yaml:"api_token" env:"CMS_API_TOKEN"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	MaxListSize int           `yaml:"max_list_size" env-default:"100"`
	// размеры страниц по умолчанию, как на сайте
	BlogPageSize   int `yaml:"blog_page_size" env-default:"3"`
	NoticePageSize int `yaml:"notice_page_size" env-default:"12"`
}

type RegistrationsConfig struct {
	// Backend: cms | local | ledger
	Backend string `yaml:"backend" env:"REGISTRATIONS_BACKEND" env-default:"cms"`
	// Storage KV для local: memory | redis | sqlite
	Storage     string        `yaml:"storage" env:"REGISTRATIONS_STORAGE" env-default:"memory"`
	Key         string        `yaml:"key" env-default:"st-rita-registrations"`
	SQLitePath  string        `yaml:"sqlite_path" env:"REGISTRATIONS_SQLITE_PATH" env-default:"./data/registrations.db"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl" env-default:"24h"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redispassword" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn" env:"POSTGRES_DSN"`
}

type AdminConfig struct {
	Login         string        `yaml:"login" env:"ADMIN_LOGIN"`
	PasswordHash  string        `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`
	JWTSecret     string        `yaml:"jwt_secret" env:"ADMIN_JWT_SECRET" env-required:"true"`
	TokenTTL      time.Duration `yaml:"token_ttl" env-default:"12h"`
	SessionSecret string        `yaml:"session_secret" env:"ADMIN_SESSION_SECRET" env-required:"true"`
}

type SiteConfig struct {
	URL        string        `yaml:"url" env:"SITE_URL" env-default:"https://saintritamaina.org"`
	SitemapTTL time.Duration `yaml:"sitemap_ttl" env-default:"1h"`
}

type JobsConfig struct {
	// cron выражения; "off" отключает задачу
	EventSnapshot       string `yaml:"event_snapshot" env-default:"*/15 * * * *"`
	SitemapWarmup       string `yaml:"sitemap_warmup" env-default:"0 * * * *"`
	RegistrationsBackup string `yaml:"registrations_backup" env-default:"0 3 * * *"`
}

// FilesConfig каталоги для файлов, которые пишут фоновые задачи; пустой путь отключает запись.
type FilesConfig struct {
	PublicDir string `yaml:"public_dir" env:"FILES_PUBLIC_DIR"`
	BackupDir string `yaml:"backup_dir" env:"FILES_BACKUP_DIR"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"1"`
	Burst int     `yaml:"burst" env-default:"5"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

// Load читает YAML и переменные окружения; .env (если есть) подхватывается первым.
func Load(configPath string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &LoadError{Reason: "config file does not exist: " + configPath}
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, &LoadError{Reason: "cannot read config: " + err.Error()}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string {
	return e.Reason
}

func (c *Config) validate() error {
	switch c.Registrations.Backend {
	case "cms", "local", "ledger":
	default:
		return &LoadError{Reason: "unknown registrations backend: " + c.Registrations.Backend}
	}

	switch c.Registrations.Storage {
	case "memory", "redis", "sqlite":
	default:
		return &LoadError{Reason: "unknown registrations storage: " + c.Registrations.Storage}
	}

	if c.Registrations.Backend == "ledger" && c.Postgres.DSN == "" {
		return &LoadError{Reason: "postgres dsn is required for the ledger backend"}
	}

	return nil
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
