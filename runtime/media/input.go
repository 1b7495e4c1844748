package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/AltairaLabs/codestream/runtime/types"
)

// ErrUnsupportedMedia is returned when the content does not match the input mode.
var ErrUnsupportedMedia = errors.New("unsupported media")

var imageTypes = map[string]bool{
	MIMETypeJPEG: true,
	MIMETypePNG:  true,
	MIMETypeGIF:  true,
	MIMETypeWebP: true,
}

// Input is a screenshot or recording ready to be sent as a request image.
type Input struct {
	MIMEType string
	Data     []byte
	// Width and Height are zero for video.
	Width   int
	Height  int
	Resized bool
}

// DataURL encodes the input as a base64 data URL.
func (in *Input) DataURL() string {
	return "data:" + in.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(in.Data)
}

// Prepare checks that data matches mode and bounds image dimensions.
func Prepare(data []byte, mode types.InputMode, limits ImageLimits) (*Input, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnsupportedMedia)
	}
	detected := mimetype.Detect(data)
	mimeType := detected.String()
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	switch mode {
	case types.InputImage:
		if !imageTypes[mimeType] {
			return nil, fmt.Errorf("%w: %s is not a supported image type", ErrUnsupportedMedia, mimeType)
		}
		return boundImage(data, mimeType, limits)
	case types.InputVideo:
		if !strings.HasPrefix(mimeType, "video/") {
			return nil, fmt.Errorf("%w: %s is not a video", ErrUnsupportedMedia, mimeType)
		}
		return &Input{MIMEType: mimeType, Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: unknown input mode %q", ErrUnsupportedMedia, mode)
	}
}

// PrepareFile reads path and calls Prepare.
func PrepareFile(path string, mode types.InputMode, limits ImageLimits) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	in, err := Prepare(data, mode, limits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}
