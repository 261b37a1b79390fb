// Package adb drives an Android device through the adb command line tool.
package adb

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/ballsort/internal/geometry"
	"github.com/vancomm/ballsort/internal/shell"
)

var (
	ErrNoDevices         = errors.New("adb: no devices attached")
	ErrUnknownDevice     = errors.New("adb: device not attached")
	ErrMalformedResponse = errors.New("adb: malformed response")
)

type Device struct {
	Serial string
	Status string
	// Attributes holds the key:value pairs adb prints after the status,
	// such as product, model and transport_id.
	Attributes map[string]string
}

// [Device] implements [fmt.Stringer]
func (d Device) String() string {
	if model, ok := d.Attributes["model"]; ok {
		return fmt.Sprintf("%s (%s, %s)", d.Serial, model, d.Status)
	}
	return fmt.Sprintf("%s (%s)", d.Serial, d.Status)
}

// ParseDevices parses the output of `adb devices -l`.
func ParseDevices(out []byte) ([]Device, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	var devices []Device
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		// daemon banners start with "*"
		if line == "" || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "List of devices") {
			continue
		}
		d, err := parseDevice(line)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, sc.Err()
}

func parseDevice(line string) (Device, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return Device{}, fmt.Errorf("%w: device line %q", ErrMalformedResponse, line)
	}
	d := Device{
		Serial:     tokens[0],
		Status:     tokens[1],
		Attributes: make(map[string]string, len(tokens)-2),
	}
	for _, token := range tokens[2:] {
		key, value, ok := strings.Cut(token, ":")
		if !ok {
			return Device{}, fmt.Errorf("%w: attribute %q", ErrMalformedResponse, token)
		}
		d.Attributes[key] = value
	}
	return d, nil
}

// SelectDevice picks the device with the given serial, or the first device
// when serial is empty.
func SelectDevice(devices []Device, serial string) (Device, error) {
	if len(devices) == 0 {
		return Device{}, ErrNoDevices
	}
	if serial == "" {
		return devices[0], nil
	}
	for _, d := range devices {
		if d.Serial == serial {
			return d, nil
		}
	}
	return Device{}, fmt.Errorf("%w: %s", ErrUnknownDevice, serial)
}

var activityRecord = regexp.MustCompile(`^mResumedActivity:\s*ActivityRecord\{\w+\s+\w+\s+(\S+)\s+\w+\}$`)

// ParseActivity extracts the component name from a mResumedActivity line of
// `dumpsys activity`.
func ParseActivity(out []byte) (string, error) {
	line, _, _ := strings.Cut(string(out), "\n")
	line = strings.TrimSpace(line)
	m := activityRecord.FindStringSubmatch(line)
	if m == nil {
		return "", fmt.Errorf("%w: activity line %q", ErrMalformedResponse, line)
	}
	return m[1], nil
}

// ParseWakefulness reports whether a mWakefulness line says the screen is on.
func ParseWakefulness(out []byte) (bool, error) {
	line, _, _ := strings.Cut(string(out), "\n")
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok || key != "mWakefulness" {
		return false, fmt.Errorf("%w: wakefulness line %q", ErrMalformedResponse, line)
	}
	switch value {
	case "Awake":
		return true, nil
	case "Asleep", "Dozing", "Dreaming":
		return false, nil
	}
	return false, fmt.Errorf("%w: wakefulness %q", ErrMalformedResponse, value)
}

type Connector struct {
	log        logrus.FieldLogger
	runner     shell.Runner
	path       string
	retryDelay time.Duration
}

// NewConnector returns a Connector running the adb binary at path ("adb"
// when empty) and polling every retryDelay while waiting.
func NewConnector(log logrus.FieldLogger, runner shell.Runner, path string, retryDelay time.Duration) *Connector {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	if path == "" {
		path = "adb"
	}
	return &Connector{log: log, runner: runner, path: path, retryDelay: retryDelay}
}

func (c *Connector) shell(ctx context.Context, d Device, args ...string) ([]byte, error) {
	return c.runner.Run(ctx, nil, c.path, append([]string{"-s", d.Serial}, args...)...)
}

func (c *Connector) Devices(ctx context.Context) ([]Device, error) {
	out, err := c.runner.Run(ctx, nil, c.path, "devices", "-l")
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return ParseDevices(out)
}

// CurrentActivity returns the component name of the resumed activity.
func (c *Connector) CurrentActivity(ctx context.Context, d Device) (string, error) {
	out, err := c.shell(ctx, d, "shell", "dumpsys activity a | grep -E 'mResumedActivity'")
	if err != nil {
		return "", fmt.Errorf("failed to query activity: %w", err)
	}
	return ParseActivity(out)
}

// CheckActivity reports whether the resumed activity matches re.
func (c *Connector) CheckActivity(ctx context.Context, d Device, re *regexp.Regexp) (bool, error) {
	activity, err := c.CurrentActivity(ctx, d)
	if err != nil {
		return false, err
	}
	match := re.MatchString(activity)
	c.log.WithFields(logrus.Fields{
		"activity": activity,
		"match":    match,
	}).Debug("checked activity")
	return match, nil
}

// WaitForActivity polls until the resumed activity matches re or ctx is
// done. Failed queries are logged and retried.
func (c *Connector) WaitForActivity(ctx context.Context, d Device, re *regexp.Regexp) (string, error) {
	log := c.log.WithField("pattern", re.String())
	log.Debug("waiting for activity")
	for {
		activity, err := c.CurrentActivity(ctx, d)
		switch {
		case err != nil:
			log.WithError(err).Warn("failed to query activity")
		case re.MatchString(activity):
			return activity, nil
		default:
			log.WithField("activity", activity).Debugf("retry in %s", c.retryDelay)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
}

func (c *Connector) ScreenOn(ctx context.Context, d Device) (bool, error) {
	out, err := c.shell(ctx, d, "shell", "dumpsys activity | grep 'mWakefulness'")
	if err != nil {
		return false, fmt.Errorf("failed to query wakefulness: %w", err)
	}
	return ParseWakefulness(out)
}

// Screenshot returns the current screen as PNG bytes.
func (c *Connector) Screenshot(ctx context.Context, d Device) ([]byte, error) {
	c.log.Debug("taking screenshot")
	out, err := c.shell(ctx, d, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, fmt.Errorf("failed to take screenshot: %w", err)
	}
	return out, nil
}

func (c *Connector) Tap(ctx context.Context, d Device, p geometry.Point) error {
	c.log.Debugf("tap at %s", p)
	_, err := c.shell(ctx, d, "shell", "input", "tap", strconv.Itoa(p.X), strconv.Itoa(p.Y))
	if err != nil {
		return fmt.Errorf("failed to tap %s: %w", p, err)
	}
	return nil
}

// Handle binds a Connector to one device.
type Handle struct {
	c *Connector
	d Device
}

func (c *Connector) Bind(d Device) *Handle {
	return &Handle{c: c, d: d}
}

func (h *Handle) CurrentActivity(ctx context.Context) (string, error) {
	return h.c.CurrentActivity(ctx, h.d)
}

func (h *Handle) CheckActivity(ctx context.Context, re *regexp.Regexp) (bool, error) {
	return h.c.CheckActivity(ctx, h.d, re)
}

func (h *Handle) WaitForActivity(ctx context.Context, re *regexp.Regexp) (string, error) {
	return h.c.WaitForActivity(ctx, h.d, re)
}

func (h *Handle) Screenshot(ctx context.Context) ([]byte, error) {
	return h.c.Screenshot(ctx, h.d)
}

func (h *Handle) Tap(ctx context.Context, p geometry.Point) error {
	return h.c.Tap(ctx, h.d, p)
}
