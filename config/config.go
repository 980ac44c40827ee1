package config

import (
	"os"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host        string `yaml:"host" json:"host"`
	Port        int    `yaml:"port" json:"port"`
	Secret      string `yaml:"secret" json:"secret"`
	SkillSecret string `yaml:"skill_secret" json:"skill_secret"`
	LoginURL    string `yaml:"login_url" json:"login_url"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type StripeConfig struct {
	APIKey        string `yaml:"api_key" json:"-"`
	WebhookSecret string `yaml:"webhook_secret" json:"-"`
}

type ContentAPIConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	Dataset string `yaml:"dataset" json:"dataset"`
	Token   string `yaml:"token" json:"-"`
}

type MailerConfig struct {
	SMTPHost string `yaml:"smtp_host" json:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port" json:"smtp_port"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
	From     string `yaml:"from" json:"from"`
}

type AppConfig struct {
	System     SysConfig        `yaml:"system" json:"system"`
	Web        WebConfig        `yaml:"web" json:"web"`
	Database   DBConfig         `yaml:"database" json:"database"`
	Logger     LogConfig        `yaml:"logger" json:"logger"`
	Stripe     StripeConfig     `yaml:"stripe" json:"stripe"`
	ContentAPI ContentAPIConfig `yaml:"content_api" json:"content_api"`
	Mailer     MailerConfig     `yaml:"mailer" json:"mailer"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "CourseCommerce",
		Location: "America/New_York",
		Workdir:  "/var/coursecommerce",
		Debug:    true,
	},
	Web: WebConfig{
		Host:     "0.0.0.0",
		Port:     1816,
		Secret:   "9b6bc6d4-0000-0000-0000-3414d80c1d4d",
		LoginURL: "https://example.com/login",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "coursecommerce",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/coursecommerce/coursecommerce.log",
	},
}

func setEnvValue(name string, val *string) {
	evalue := os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	evalue := os.Getenv(name)
	if evalue != "" {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

func setEnvIntValue(name string, val *int) {
	evalue := os.Getenv(name)
	if evalue != "" {
		*val = cast.ToInt(evalue)
	}
}

// LoadConfig reads the YAML configuration file and applies environment
// variable overrides, falling back to DefaultAppConfig when no file exists.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	if strings.TrimSpace(cfile) != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				panic(err)
			}
		} else {
			cfg = DefaultAppConfig
		}
	} else {
		cfg = DefaultAppConfig
	}

	setEnvValue("COMMERCE_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("COMMERCE_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("COMMERCE_WEB_HOST", &cfg.Web.Host)
	setEnvIntValue("COMMERCE_WEB_PORT", &cfg.Web.Port)
	setEnvValue("COMMERCE_WEB_SECRET", &cfg.Web.Secret)
	setEnvValue("COMMERCE_SKILL_SECRET", &cfg.Web.SkillSecret)
	setEnvValue("COMMERCE_LOGIN_URL", &cfg.Web.LoginURL)

	setEnvValue("COMMERCE_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("COMMERCE_DB_PORT", &cfg.Database.Port)
	setEnvValue("COMMERCE_DB_NAME", &cfg.Database.Name)
	setEnvValue("COMMERCE_DB_USER", &cfg.Database.User)
	setEnvValue("COMMERCE_DB_PASSWD", &cfg.Database.Passwd)

	setEnvValue("STRIPE_SECRET_KEY", &cfg.Stripe.APIKey)
	setEnvValue("STRIPE_WEBHOOK_SECRET", &cfg.Stripe.WebhookSecret)

	setEnvValue("CONTENT_API_BASE_URL", &cfg.ContentAPI.BaseURL)
	setEnvValue("CONTENT_API_DATASET", &cfg.ContentAPI.Dataset)
	setEnvValue("CONTENT_API_TOKEN", &cfg.ContentAPI.Token)

	setEnvValue("COMMERCE_SMTP_HOST", &cfg.Mailer.SMTPHost)
	setEnvIntValue("COMMERCE_SMTP_PORT", &cfg.Mailer.SMTPPort)
	setEnvValue("COMMERCE_SMTP_USERNAME", &cfg.Mailer.Username)
	setEnvValue("COMMERCE_SMTP_PASSWORD", &cfg.Mailer.Password)
	setEnvValue("COMMERCE_SMTP_FROM", &cfg.Mailer.From)

	return cfg
}
