package config

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

const maskedSecret = "******"

// Dump renders the effective configuration as YAML with secrets masked.
func Dump(c *Config) ([]byte, error) {
	if c == nil {
		c = Default()
	}
	clone := *c
	if clone.Map.AccessToken != "" {
		clone.Map.AccessToken = maskedSecret
	}
	if clone.Notify.Telegram.BotToken != "" {
		clone.Notify.Telegram.BotToken = maskedSecret
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&clone); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
