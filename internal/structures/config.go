package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type StorageConfig struct {
	Root            string        `yaml:"root" validate:"required|unixPath"`
	RawFolder       string        `yaml:"rawFolder"`
	ProcessedFolder string        `yaml:"processedFolder"`
	DownloadDir     string        `yaml:"downloadDir"`
	Format          string        `yaml:"format" validate:"in:jpeg,png"`
	Quality         int           `yaml:"quality" validate:"uint|max:100"`
	FlushInterval   time.Duration `yaml:"flushInterval"`
}

type DatabaseConfig struct {
	Path     string `yaml:"path" validate:"required|unixPath"`
	BlobPath string `yaml:"blobPath" validate:"required|unixPath"`
}

type GPSConfig struct {
	AcquireTimeout time.Duration `yaml:"acquireTimeout"`
	MaxSampleAge   time.Duration `yaml:"maxSampleAge"`
	HighAccuracy   bool          `yaml:"highAccuracy"`
}

type CameraConfig struct {
	AspectRatio string `yaml:"aspectRatio" validate:"aspectRatio"`
	FacingMode  string `yaml:"facingMode" validate:"in:user,environment"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server         `yaml:"webServer"`
	Storage   StorageConfig  `yaml:"storage"`
	Database  DatabaseConfig `yaml:"database"`
	GPS       GPSConfig      `yaml:"gps"`
	Camera    CameraConfig   `yaml:"camera"`
	Logger    LoggerConfig   `yaml:"logger"`
	Cache     CacheConfig    `yaml:"cache"`
	Metrics   MetricsConfig  `yaml:"metrics"`
}

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}

// ApplyDefaults fills zero-valued optional fields after unmarshal.
func (c *Config) ApplyDefaults() {
	if c.Storage.RawFolder == "" {
		c.Storage.RawFolder = "raw"
	}
	if c.Storage.ProcessedFolder == "" {
		c.Storage.ProcessedFolder = "processed"
	}
	if c.Storage.Format == "" {
		c.Storage.Format = "jpeg"
	}
	if c.Storage.Quality == 0 {
		c.Storage.Quality = 80
	}
	if c.Storage.FlushInterval == 0 {
		c.Storage.FlushInterval = 30 * time.Second
	}
	if c.GPS.AcquireTimeout == 0 {
		c.GPS.AcquireTimeout = 10 * time.Second
	}
	if c.GPS.MaxSampleAge == 0 {
		c.GPS.MaxSampleAge = 5 * time.Second
	}
	if c.Camera.AspectRatio == "" {
		c.Camera.AspectRatio = "16:9"
	}
	if c.Camera.FacingMode == "" {
		c.Camera.FacingMode = "environment"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Minute
	}
}
