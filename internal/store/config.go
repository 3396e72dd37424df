package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"broksum/internal/crawl"
	"broksum/internal/types"
)

const (
	// DateLayout is how from_date and to_date are written in the config.
	DateLayout = "02/01/2006"

	ModeRange = "range"
	ModeMonth = "month"

	FetcherHTTP  = "http"
	FetcherColly = "colly"

	DefaultBrokerSummaryURL = "https://www.indopremier.com/module/saham/include/data-brokersummary.php?code={code}&start={date}&end={date}&fd=all&board=all"
	DefaultChartURL         = "https://www.indopremier.com/module/saham/include/json-charting.php?code={code}&start={date}&end={date}"
)

// ErrEmptyConfiguration is returned when no ticker codes are configured.
// There is nothing to crawl; callers treat it as a no-op.
var ErrEmptyConfiguration = errors.New("empty configuration: list_saham has no codes")

type Config struct {
	ListSaham []string `yaml:"list_saham" validate:"min=1,dive,required,alphanum"`
	MaxRank   int      `yaml:"max_rank" validate:"gt=0"`

	Mode     string `yaml:"mode" validate:"oneof=range month"`
	FromDate string `yaml:"from_date" validate:"required_if=Mode range,omitempty,datetime=02/01/2006"`
	ToDate   string `yaml:"to_date" validate:"required_if=Mode range,omitempty,datetime=02/01/2006"`
	Month    int    `yaml:"month" validate:"required_if=Mode month,omitempty,min=1,max=12"`
	Year     int    `yaml:"year" validate:"required_if=Mode month,omitempty,min=1900"`

	Variant types.Variant `yaml:"variant" validate:"oneof=summary merge"`

	// Pointers so an explicit 0 (never pause, no cooldown) survives
	// ApplyDefaults.
	ThrottleThreshold *int `yaml:"throttle_threshold" validate:"omitempty,gte=0"`
	CooldownSeconds   *int `yaml:"cooldown_seconds" validate:"omitempty,gte=0"`

	Fetcher            string `yaml:"fetcher" validate:"oneof=http colly"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds" validate:"gt=0"`
	RetryAttempts      int    `yaml:"retry_attempts" validate:"gte=1"`
	RetryWaitSeconds   *int   `yaml:"retry_wait_seconds" validate:"omitempty,gte=0"`

	BrokerSummaryURL string `yaml:"broker_summary_url" validate:"required,contains={code}"`
	ChartURL         string `yaml:"chart_url" validate:"required,contains={code}"`

	OutputDir string   `yaml:"output_dir" validate:"required"`
	Formats   []string `yaml:"formats" validate:"min=1,dive,oneof=json ndjson csv xlsx parquet"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed '%s' check (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	if c.Mode == ModeRange {
		from, to, err := c.DateRange()
		if err != nil {
			return err
		}
		if from.After(to) {
			return fmt.Errorf("from_date %s is after to_date %s", c.FromDate, c.ToDate)
		}
	}
	return nil
}

func intPtr(n int) *int { return &n }

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// ApplyDefaults fills every unset field. Mode decides the throttle default.
func (c *Config) ApplyDefaults() {
	for i, code := range c.ListSaham {
		c.ListSaham[i] = strings.ToUpper(strings.TrimSpace(code))
	}
	if c.MaxRank == 0 {
		c.MaxRank = 5
	}
	if c.Mode == "" {
		c.Mode = ModeRange
	}
	if c.Variant == "" {
		c.Variant = types.VariantSummary
	}
	if c.ThrottleThreshold == nil {
		if c.Mode == ModeMonth {
			c.ThrottleThreshold = intPtr(crawl.DateMajorThreshold)
		} else {
			c.ThrottleThreshold = intPtr(crawl.TickerMajorThreshold)
		}
	}
	if c.CooldownSeconds == nil {
		c.CooldownSeconds = intPtr(int(crawl.DefaultCooldown / time.Second))
	}
	if c.Fetcher == "" {
		c.Fetcher = FetcherHTTP
	}
	if c.HTTPTimeoutSeconds == 0 {
		c.HTTPTimeoutSeconds = 30
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 1
	}
	if c.RetryWaitSeconds == nil {
		c.RetryWaitSeconds = intPtr(2)
	}
	if c.BrokerSummaryURL == "" {
		c.BrokerSummaryURL = DefaultBrokerSummaryURL
	}
	if c.ChartURL == "" {
		c.ChartURL = DefaultChartURL
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{"json", "xlsx"}
	}
}

// DateRange parses from_date and to_date.
func (c *Config) DateRange() (from, to time.Time, err error) {
	from, err = time.Parse(DateLayout, c.FromDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid from_date %q: %w", c.FromDate, err)
	}
	to, err = time.Parse(DateLayout, c.ToDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid to_date %q: %w", c.ToDate, err)
	}
	return from, to, nil
}

// Plan builds the crawl plan for the configured mode.
func (c *Config) Plan() (crawl.Plan, error) {
	if c.Mode == ModeMonth {
		return crawl.MonthPlan(c.ListSaham, time.Month(c.Month), c.Year), nil
	}
	from, to, err := c.DateRange()
	if err != nil {
		return crawl.Plan{}, err
	}
	return crawl.RangePlan(c.ListSaham, from, to), nil
}

// FileStem names output files: DD-MM-YYYY-DD-MM-YYYY for a range,
// MM-YYYY for a month.
func (c *Config) FileStem() string {
	if c.Mode == ModeMonth {
		return fmt.Sprintf("%02d-%04d", c.Month, c.Year)
	}
	from, to, err := c.DateRange()
	if err != nil {
		return "broksum"
	}
	return from.Format("02-01-2006") + "-" + to.Format("02-01-2006")
}

// Threshold is the number of requests between cooldowns; 0 never pauses.
func (c *Config) Threshold() int {
	return derefInt(c.ThrottleThreshold)
}

func (c *Config) Cooldown() time.Duration {
	return time.Duration(derefInt(c.CooldownSeconds)) * time.Second
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func (c *Config) RetryWait() time.Duration {
	return time.Duration(derefInt(c.RetryWaitSeconds)) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

// ParseConfig decodes YAML, applies defaults and validates.
func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if len(c.ListSaham) == 0 {
		return nil, ErrEmptyConfiguration
	}

	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
