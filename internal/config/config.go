package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"primenet-sync/internal/components/telemetry"
	"primenet-sync/internal/scrapers/primenet"
	"primenet-sync/lib/configutil"
	"primenet-sync/lib/secret"

	"github.com/titanous/json5"
)

const (
	StatisticsLocal  = "local"
	StatisticsRemote = "remote"
)

// WorkerList accepts either a list of directories or a single string of
// directories delimited by `;`.
type WorkerList []string

func (w *WorkerList) UnmarshalJSON(data []byte) error {
	var list []string
	err := json5.Unmarshal(data, &list)
	if err == nil {
		*w = cleanWorkers(list)
		return nil
	}
	var delimited string
	err = json5.Unmarshal(data, &delimited)
	if err != nil {
		return errors.New("workers must be a list or a ';' delimited string")
	}
	*w = cleanWorkers(strings.Split(delimited, ";"))
	return nil
}

func (w *WorkerList) UnmarshalJSON5(data []byte) error {
	return w.UnmarshalJSON(data)
}

func cleanWorkers(dirs []string) WorkerList {
	out := WorkerList{}
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		out = append(out, dir)
	}
	return out
}

type StatisticsConfig struct {
	// Source is either "local" or "remote".
	Source     string `json:"source"`
	ResultType string `json:"result_type"`
	Limit      int    `json:"limit"`
}

type ReportsConfig struct {
	// Disabled turns the hourly leaderboard downloads off.
	Disabled bool `json:"disabled"`

	// Member is the leaderboard name of the account, it defaults to the username.
	Member string   `json:"member"`
	RankLo int      `json:"rank_lo"`
	RankHi int      `json:"rank_hi"`
	Types  []string `json:"types"`
}

type Config struct {
	Workers           WorkerList `json:"workers"`
	Username          string     `json:"username"`
	Password          string     `json:"password"`
	EncryptedPassword string     `json:"encrypted_password"`

	MinAssignmentCount int    `json:"min_assignment_count"`
	WorkType           string `json:"work_type"`
	ExponentLow        int    `json:"exponent_low"`
	ExponentHigh       int    `json:"exponent_high"`

	UploadOffsetMinutes int `json:"upload_offset_minutes"`
	ReportOffsetMinutes int `json:"report_offset_minutes"`

	DataDir           string  `json:"data_dir"`
	BaseUrl           string  `json:"base_url"`
	RequestsPerSecond float64 `json:"requests_per_second"`

	Statistics StatisticsConfig     `json:"statistics"`
	Reports    ReportsConfig        `json:"reports"`
	Otlp       telemetry.OtlpConfig `json:"otlp"`
}

func Defaults() Config {
	return Config{
		MinAssignmentCount:  2,
		WorkType:            "world_record",
		UploadOffsetMinutes: 58,
		ReportOffsetMinutes: 12,
		DataDir:             ".",
		BaseUrl:             primenet.DefaultBaseUrl,
		RequestsPerSecond:   2,
		Statistics: StatisticsConfig{
			Source:     StatisticsLocal,
			ResultType: "LL",
			Limit:      1000,
		},
		Reports: ReportsConfig{
			RankLo: 1,
			RankHi: 500,
			Types: []string{
				"all",
				"trial_factoring",
				"p1_factoring",
				"first_ll",
				"double_check",
				"ecm_mersenne",
				"ecm_fermat",
			},
		},
	}
}

// Load reads the configuration file at path (and its local override) on top of
// Defaults and validates the result. Only keys missing from both files keep
// their default, an explicit 0 is kept as given.
func Load(path string) (Config, error) {
	config := Defaults()
	err := configutil.ReadConfigOnto(path, &config)
	if err != nil {
		return Config{}, err
	}
	return config, config.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Workers) == 0 {
		errs = append(errs, errors.New("no workers configured"))
	}
	if c.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if c.MinAssignmentCount < 0 {
		errs = append(errs, errors.New("min_assignment_count must not be negative"))
	}
	if c.UploadOffsetMinutes < 0 || c.UploadOffsetMinutes > 59 {
		errs = append(errs, errors.New("upload_offset_minutes must be within 0..59"))
	}
	if c.ReportOffsetMinutes < 0 || c.ReportOffsetMinutes > 59 {
		errs = append(errs, errors.New("report_offset_minutes must be within 0..59"))
	}
	if c.ExponentHigh != 0 && c.ExponentHigh < c.ExponentLow {
		errs = append(errs, errors.New("exponent_high must not be below exponent_low"))
	}
	_, err := c.ParsedWorkType()
	if err != nil {
		errs = append(errs, err)
	}
	_, err = c.ParsedReportTypes()
	if err != nil {
		errs = append(errs, err)
	}
	switch c.Statistics.Source {
	case StatisticsLocal, StatisticsRemote:
	default:
		errs = append(errs, fmt.Errorf("unknown statistics source %q", c.Statistics.Source))
	}
	return errors.Join(errs...)
}

func (c Config) ParsedWorkType() (primenet.WorkType, error) {
	return primenet.ParseWorkType(c.WorkType)
}

func (c Config) ParsedReportTypes() ([]primenet.ReportType, error) {
	out := make([]primenet.ReportType, len(c.Reports.Types))
	for i, name := range c.Reports.Types {
		rt, err := primenet.ParseReportType(name)
		if err != nil {
			return nil, err
		}
		out[i] = rt
	}
	return out, nil
}

// ResolvePassword returns the plain password, decrypting encrypted_password
// with the machine passphrase when no plain password is set.
func (c Config) ResolvePassword() (string, error) {
	if c.Password != "" {
		return c.Password, nil
	}
	if c.EncryptedPassword == "" {
		return "", errors.New("neither password nor encrypted_password is set")
	}
	return secret.Decrypt(c.EncryptedPassword, secret.MachinePassphrase())
}

func (c Config) ReportMember() string {
	if c.Reports.Member != "" {
		return c.Reports.Member
	}
	return c.Username
}

func (c Config) StagingDir() string {
	return filepath.Join(c.DataDir, "staging")
}

func (c Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backup")
}

// WeblogsDir holds every page fetched from the portal.
func (c Config) WeblogsDir() string {
	return filepath.Join(c.DataDir, "weblogs")
}

func (c Config) ReportsDatabase() string {
	return filepath.Join(c.DataDir, "reports", "reports.db")
}
