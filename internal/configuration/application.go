package configuration

import (
	"fmt"
	"time"

	"github.com/nuzDop/limitless-storage/internal/ata"
	"github.com/nuzDop/limitless-storage/internal/ramdisk"
	"github.com/nuzDop/limitless-storage/internal/vfs"
)

// Configuration keys, as read from the daemon's key=value configuration file.
const (
	keyATATimeoutMS       = "STORAGE_ATA_TIMEOUT_MS"
	keyRamdiskCapacity    = "STORAGE_RAMDISK_CAPACITY"
	keyRamdiskMaxFileSize = "STORAGE_RAMDISK_MAX_FILE_SIZE"
	keyMaxOpenHandles     = "STORAGE_MAX_OPEN_HANDLES"

	// keyImagePrefix names one disk image per drive slot, 0-indexed in
	// channel-then-position order (STORAGE_IMAGE_0 .. STORAGE_IMAGE_7).
	keyImagePrefix = "STORAGE_IMAGE_"
)

// AppConfiguration is the principal structure holding the application
// configuration.
type AppConfiguration struct {
	// ATATimeout bounds each register-level wait on a drive.
	ATATimeout time.Duration

	// RamdiskCapacity is the boot filesystem's file record table size.
	RamdiskCapacity int

	// RamdiskMaxFileSize bounds a single boot filesystem file.
	RamdiskMaxFileSize uint64

	// MaxOpenHandles is the open file table capacity.
	MaxOpenHandles int

	// DeviceImages maps drive slots to backing disk image paths; slots
	// without an image present as empty.
	DeviceImages map[int]string
}

// NewAppConfiguration returns a pointer to a new [AppConfiguration] carrying
// the built-in defaults.
func NewAppConfiguration() *AppConfiguration {
	return &AppConfiguration{
		ATATimeout:         ata.DefaultTimeout,
		RamdiskCapacity:    ramdisk.DefaultCapacity,
		RamdiskMaxFileSize: ramdisk.DefaultMaxFileSize,
		MaxOpenHandles:     vfs.DefaultMaxHandles,
		DeviceImages:       make(map[int]string),
	}
}

// LoadAppConfiguration reads the given configuration file and returns the
// application configuration with any set keys applied over the defaults.
func (c *ConfigProviderImpl) LoadAppConfiguration(filename string) (*AppConfiguration, error) {
	config := NewAppConfiguration()

	envMap, err := c.ReadGeneric(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration %q: %w", filename, err)
	}

	if ms := c.MapKeyToInt64(envMap, keyATATimeoutMS); ms > 0 {
		config.ATATimeout = time.Duration(ms) * time.Millisecond
	}

	if capacity := c.MapKeyToInt(envMap, keyRamdiskCapacity); capacity > 0 {
		config.RamdiskCapacity = capacity
	}

	if size := c.MapKeyToInt64(envMap, keyRamdiskMaxFileSize); size > 0 {
		config.RamdiskMaxFileSize = uint64(size)
	}

	if handles := c.MapKeyToInt(envMap, keyMaxOpenHandles); handles > 0 {
		config.MaxOpenHandles = handles
	}

	for slot := range ata.MaxDevices {
		if path := c.MapKeyToString(envMap, fmt.Sprintf("%s%d", keyImagePrefix, slot)); path != "" {
			config.DeviceImages[slot] = path
		}
	}

	return config, nil
}
