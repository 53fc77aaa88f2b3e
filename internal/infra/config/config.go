package config

import (
	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPPort       int   `env:"HTTP_PORT"        envDefault:"8082"`
	MetricsPort    int   `env:"METRICS_PORT"     envDefault:"8083"`
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"1073741824"`

	TempDir string `env:"TEMP_DIR" envDefault:"/tmp/mpeg4-clipper"`

	FFmpegLogLevel string `env:"FFMPEG_LOG_LEVEL" envDefault:"error"`
	ClipVideoCodec string `env:"CLIP_VIDEO_CODEC" envDefault:"libx264"`
	ClipAudioCodec string `env:"CLIP_AUDIO_CODEC" envDefault:"aac"`

	MinFrameScale float64 `env:"MIN_FRAME_SCALE" envDefault:"0.2"`

	OTLPEndpoint string `env:"OTLP_ENDPOINT" envDefault:"http://jaeger:4318/v1/traces"`
	LogLevel     string `env:"LOG_LEVEL"     envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
