// Package datasets loads the credit-score dataset and its configuration.
package datasets

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/YuminosukeSato/creditgroup/pkg/errors"
	"github.com/YuminosukeSato/creditgroup/pkg/log"
)

// Config holds dataset locations and experiment parameters. Every field is
// read from the environment variable in its env tag, falling back to the
// default tag. Lists are comma separated.
type Config struct {
	KaggleDataset string `env:"CREDIT_KAGGLE_DATASET" default:"parisrohan/credit-score-classification"`
	DataDir       string `env:"CREDIT_DATA_DIR"`
	CacheDir      string `env:"KAGGLEHUB_CACHE"`
	TrainFile     string `env:"CREDIT_TRAIN_FILE" default:"train.csv"`
	TestFile      string `env:"CREDIT_TEST_FILE" default:"test.csv"`

	TargetCol       string   `env:"CREDIT_TARGET_COL" default:"Credit_Mix"`
	DefaultFeatures []string `env:"CREDIT_DEFAULT_FEATURES" default:"Month,Age,Annual_Income,Monthly_Inhand_Salary,Num_Bank_Accounts"`
	IDCols          []string `env:"CREDIT_ID_COLS" default:"Customer_ID,ID,Name,SSN"`
	CatCols         []string `env:"CREDIT_CAT_COLS" default:"Occupation,Payment_Behaviour"`

	ImputeStrategy string  `env:"CREDIT_IMPUTE_STRATEGY" default:"median"`
	KNNNeighbors   int     `env:"CREDIT_KNN_NEIGHBORS" default:"5"`
	TestSize       float64 `env:"CREDIT_TEST_SIZE" default:"0.2"`
	RandomState    int64   `env:"CREDIT_RANDOM_STATE" default:"42"`

	CategoricalRatio float64 `env:"CREDIT_CATEGORICAL_RATIO" default:"0.5"`
	IdentifierRatio  float64 `env:"CREDIT_IDENTIFIER_RATIO" default:"0.95"`

	LogLevel string `env:"CREDIT_LOG_LEVEL" default:"info"`
}

// LoadConfig reads configuration from the environment. Variables from the
// given env files are loaded first without overriding the environment; with
// no files an optional ".env" in the working directory is used.
func LoadConfig(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, errors.Wrap(err, "config load")
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, errors.Wrap(err, "config load")
		}
	}

	cfg := &Config{}
	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, errors.Wrap(err, "config load")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation")
	}
	return cfg, nil
}

// DefaultConfig returns the configuration built from defaults only.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := loadStructWith(reflect.ValueOf(cfg).Elem(), func(string) string { return "" }); err != nil {
		panic(err)
	}
	return cfg
}

func loadStruct(v reflect.Value) error {
	return loadStructWith(v, os.Getenv)
}

func loadStructWith(v reflect.Value, getenv func(string) string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)
		if !fieldVal.CanSet() {
			continue
		}
		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}
		value := getenv(envName)
		if value == "" {
			value = field.Tag.Get("default")
		}
		if value == "" {
			continue
		}
		if err := setField(fieldVal, value); err != nil {
			return errors.Wrapf(err, "invalid value for %s=%q", envName, value)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return errors.Wrap(err, "invalid integer")
		}
		field.SetInt(i)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Wrap(err, "invalid float")
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return errors.Newf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))
	default:
		return errors.Newf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if strings.Count(c.KaggleDataset, "/") != 1 {
		return errors.NewValidationError("KaggleDataset", "must be owner/slug", c.KaggleDataset)
	}
	if c.TargetCol == "" {
		return errors.NewValidationError("TargetCol", "must not be empty", c.TargetCol)
	}
	switch c.ImputeStrategy {
	case "mean", "median", "knn", "none":
	default:
		return errors.NewValidationError("ImputeStrategy", "must be mean, median, knn or none", c.ImputeStrategy)
	}
	if c.KNNNeighbors < 1 {
		return errors.NewValidationError("KNNNeighbors", "must be >= 1", c.KNNNeighbors)
	}
	if !(c.TestSize > 0 && c.TestSize < 1) {
		return errors.NewValidationError("TestSize", "must be in (0, 1)", c.TestSize)
	}
	if !(c.CategoricalRatio > 0 && c.CategoricalRatio <= 1) {
		return errors.NewValidationError("CategoricalRatio", "must be in (0, 1]", c.CategoricalRatio)
	}
	if !(c.IdentifierRatio > 0 && c.IdentifierRatio <= 1) {
		return errors.NewValidationError("IdentifierRatio", "must be in (0, 1]", c.IdentifierRatio)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.NewValidationError("LogLevel", "must be debug, info, warn or error", c.LogLevel)
	}
	return nil
}
