package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sgtao/stapp-mpeg4-clipper/internal/domain/entity"
)

type probeOutput struct {
	Streams []struct {
		CodecType    string       `json:"codec_type"`
		Width        int          `json:"width"`
		Height       int          `json:"height"`
		AvgFrameRate fractionRate `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// fractionRate parses ffprobe's "num/den" frame rate notation.
type fractionRate float64

func (f *fractionRate) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return errors.New("invalid fraction format")
	}
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return fmt.Errorf("invalid numerator: %v", err)
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return fmt.Errorf("invalid denominator: %v", err)
	}
	if den == 0 {
		*f = 0
		return nil
	}
	*f = fractionRate(num / den)
	return nil
}

type videoInfo struct {
	duration  float64
	frameRate float64
	width     int
	height    int
}

func probe(ctx context.Context, path string) (*videoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-show_entries", "stream=codec_type,width,height,avg_frame_rate",
		"-of", "json",
		path,
	)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffprobe: %v, stderr: %s", entity.ErrDecode, err, stderr.String())
	}

	var po probeOutput
	if err := json.Unmarshal(out.Bytes(), &po); err != nil {
		return nil, fmt.Errorf("%w: parse ffprobe output: %v", entity.ErrDecode, err)
	}

	info := &videoInfo{}
	for _, stream := range po.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info.width = stream.Width
		info.height = stream.Height
		info.frameRate = float64(stream.AvgFrameRate)
		break
	}
	if info.width <= 0 || info.height <= 0 {
		return nil, fmt.Errorf("%w: no video stream with valid dimensions", entity.ErrDecode)
	}
	if info.frameRate <= 0 {
		return nil, fmt.Errorf("%w: invalid frame rate", entity.ErrDecode)
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(po.Format.Duration), 64)
	if err != nil || dur < 0 {
		return nil, fmt.Errorf("%w: invalid duration %q", entity.ErrDecode, po.Format.Duration)
	}
	info.duration = dur

	return info, nil
}
