package config

import (
	"fmt"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

// ValKeyConn holds the resolved connection settings of a ValKey instance.
type ValKeyConn struct {
	Address  string
	User     string
	Password string
}

func MakeValKeyConn(conf ValKey) (ValKeyConn, error) {
	host, err := commoncfg.LoadValueFromSourceRef(conf.Host)
	if err != nil {
		return ValKeyConn{}, fmt.Errorf("loading valkey host: %w", err)
	}

	user, err := commoncfg.LoadValueFromSourceRef(conf.User)
	if err != nil {
		return ValKeyConn{}, fmt.Errorf("loading valkey user: %w", err)
	}

	password, err := commoncfg.LoadValueFromSourceRef(conf.Password)
	if err != nil {
		return ValKeyConn{}, fmt.Errorf("loading valkey password: %w", err)
	}

	return ValKeyConn{
		Address:  string(host),
		User:     string(user),
		Password: string(password),
	}, nil
}

// LoadAPIKey resolves the optional API key. An unset reference yields an empty key.
func LoadAPIKey(conf API) (string, error) {
	if conf.APIKey.Source == "" {
		return "", nil
	}

	key, err := commoncfg.LoadValueFromSourceRef(conf.APIKey)
	if err != nil {
		return "", fmt.Errorf("loading api key: %w", err)
	}

	return string(key), nil
}
