package muxer

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config describes one muxing job. A job receives a copy, so changing the
// caller's value never affects a running job.
type Config struct {
	Output     string  `json:"output" validate:"required"`
	Width      int     `json:"width" validate:"gt=0"`
	Height     int     `json:"height" validate:"gt=0"`
	Codec      string  `json:"codec" validate:"required"`
	TrackCount int     `json:"trackCount" validate:"gte=1"`
	FPS        float64 `json:"fps" validate:"gt=0"`
	Bitrate    int     `json:"bitrate" validate:"gt=0"` // bits per second
	Quality    int     `json:"quality,omitempty" validate:"gte=0,lte=100"`
}

var validate = validator.New()

// Validate checks the numeric and required fields.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrConfigInvalid, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrConfigInvalid, err)
}

// Timestamp returns the presentation time of frame index in milliseconds.
func Timestamp(index int, fps float64) int {
	return int(math.Round(float64(index) * 1000 / fps))
}

// VideoDuration returns the playback length of n frames.
func VideoDuration(n int, fps float64) time.Duration {
	return time.Duration(float64(n) / fps * float64(time.Second))
}
