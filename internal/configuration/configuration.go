// Package configuration reads the storage daemon's settings from Unix-type
// key=value configuration files and maps them onto the typed application
// configuration, falling back to the built-in defaults for anything unset.
package configuration

import (
	"strconv"
)

type genericConfigProvider interface {
	Read(filenames ...string) (envMap map[string]string, err error)
}

// ConfigProviderImpl is the principal implementation of the configuration
// layer, generic over the underlying file reader.
type ConfigProviderImpl struct {
	GenericConfigReader genericConfigProvider
}

// ReadGeneric reads the given configuration files into a map (map[key]value).
func (c *ConfigProviderImpl) ReadGeneric(filenames ...string) (envMap map[string]string, err error) {
	return c.GenericConfigReader.Read(filenames...)
}

// MapKeyToString returns the key's value, or an empty string when unset.
func (c *ConfigProviderImpl) MapKeyToString(envMap map[string]string, key string) string {
	if value, exists := envMap[key]; exists {
		return value
	}

	return ""
}

// MapKeyToInt returns the key's value as an integer, or -1 when unset or
// unparseable.
func (c *ConfigProviderImpl) MapKeyToInt(envMap map[string]string, key string) int {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return -1
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}

	return intValue
}

// MapKeyToInt64 returns the key's value as a 64-bit integer, or -1 when unset
// or unparseable.
func (c *ConfigProviderImpl) MapKeyToInt64(envMap map[string]string, key string) int64 {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return -1
	}

	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return -1
	}

	return intValue
}
