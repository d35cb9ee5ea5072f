package recorder

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// buildCaptureArgs assembles the encoder command line: fixed 30 fps,
// constant-frame-rate H.264, no mouse cursor, grabbing the requested region
// from the platform screen-capture device.
func buildCaptureArgs(region Region, videoPath string, opts Options) []string {
	args := make([]string, 0, 32)
	args = append(args, "-hide_banner", "-loglevel", "info")

	size := fmt.Sprintf("%dx%d", region.Width, region.Height)

	switch runtime.GOOS {
	case "darwin":
		// avfoundation grabs the whole display; the region becomes a crop.
		args = append(args,
			"-f", "avfoundation",
			"-framerate", "30",
			"-capture_cursor", "0",
			"-i", "1:none",
		)
	case "windows":
		args = append(args,
			"-f", "gdigrab",
			"-framerate", "30",
			"-draw_mouse", "0",
		)
		if opts.ShowRegion {
			args = append(args, "-show_region", "1")
		}
		args = append(args,
			"-offset_x", strconv.Itoa(region.X),
			"-offset_y", strconv.Itoa(region.Y),
			"-video_size", size,
			"-i", "desktop",
		)
	default:
		display := os.Getenv("DISPLAY")
		if display == "" {
			display = ":0.0"
		}
		args = append(args,
			"-f", "x11grab",
			"-framerate", "30",
			"-draw_mouse", "0",
		)
		if opts.ShowRegion {
			args = append(args, "-show_region", "1")
		}
		args = append(args,
			"-video_size", size,
			"-i", fmt.Sprintf("%s+%d,%d", display, region.X, region.Y),
		)
	}

	if filter := buildFilter(region, opts); filter != "" {
		args = append(args, "-vf", filter)
	}

	args = append(args,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-crf", "23",
		"-pix_fmt", "yuv420p",
		"-r", "30",
		"-fps_mode", "cfr",
		"-y", videoPath,
	)
	return args
}

func buildFilter(region Region, opts Options) string {
	var filters []string
	if runtime.GOOS == "darwin" {
		filters = append(filters, fmt.Sprintf("crop=%d:%d:%d:%d", region.Width, region.Height, region.X, region.Y))
	}
	if opts.Scale720p {
		filters = append(filters, "scale=1280:720")
	}
	switch len(filters) {
	case 0:
		return ""
	case 1:
		return filters[0]
	default:
		return filters[0] + "," + filters[1]
	}
}
