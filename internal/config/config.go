// Package config defines the necessary types to configure the application.
// An example config file config.yaml is provided in the repository.
package config

import (
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	API         API         `yaml:"api"`
	Cache       Cache       `yaml:"cache"`
	Search      Search      `yaml:"search"`
	Catalog     Catalog     `yaml:"catalog"`
	Reset       Reset       `yaml:"reset"`
	Credentials Credentials `yaml:"credentials"`
	Terminal    Terminal    `yaml:"terminal"`
}

// API configures the storefront REST API client.
type API struct {
	BaseURL string              `yaml:"baseURL" default:"http://localhost:8080/api/"`
	Timeout time.Duration       `yaml:"timeout" default:"15s"`
	APIKey  commoncfg.SourceRef `yaml:"apiKey"`
}

// Cache configures the GET response cache in front of the API client.
type Cache struct {
	Enabled         bool          `yaml:"enabled" default:"true"`
	TTL             time.Duration `yaml:"ttl" default:"30s"`
	CleanupInterval time.Duration `yaml:"cleanupInterval" default:"1m"`
}

type Search struct {
	Debounce          time.Duration `yaml:"debounce" default:"500ms"`
	MinQueryLength    int           `yaml:"minQueryLength" default:"2"`
	RollbackOnFailure bool          `yaml:"rollbackOnFailure" default:"false"`
}

type Catalog struct {
	ManufacturerID string `yaml:"manufacturerID"`
	MaxPages       int    `yaml:"maxPages" default:"1"`
}

type Reset struct {
	CompletionDelay time.Duration `yaml:"completionDelay" default:"2s"`
}

type CredentialStoreType string

const (
	CredentialStoreFile   CredentialStoreType = "file"
	CredentialStoreMemory CredentialStoreType = "memory"
	CredentialStoreValkey CredentialStoreType = "valkey"
)

// Credentials selects where the access token is kept between commands.
// The memory store forgets it when the process exits.
type Credentials struct {
	Store   CredentialStoreType `yaml:"store" default:"file"`
	Profile string              `yaml:"profile" default:"default"`
	// Dir holds one file per profile for the file store.
	// Empty means $HOME/.storefront/credentials.
	Dir    string `yaml:"dir"`
	ValKey ValKey `yaml:"valkey"`
}

type ValKey struct {
	Host     commoncfg.SourceRef `yaml:"host"`
	User     commoncfg.SourceRef `yaml:"user"`
	Password commoncfg.SourceRef `yaml:"password"`
	Prefix   string              `yaml:"prefix" default:"storefront"`
}

// Terminal configures the interactive screens. Logs would corrupt the
// screen, so they go to LogFile instead, or nowhere when it is empty.
type Terminal struct {
	LogFile string `yaml:"logFile"`
}
