package jvm

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/smazurov/kiosk/internal/logging"
)

// ErrNoDisplay is returned when the detection helper reports no card.
var ErrNoDisplay = errors.New("no primary video card reported")

// DetectDisplayID runs the primary card detection helper and returns the
// device path it prints, e.g. /dev/dri/card1. The helper's diagnostics on
// stderr are logged at debug level.
func DetectDisplayID(ctx context.Context, bin string, logger logging.Logger) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Executing helper for primary video card detection", "helper", bin)
	err := cmd.Run()

	scanner := bufio.NewScanner(&stderr)
	for scanner.Scan() {
		logger.Debug("> " + scanner.Text())
	}

	if err != nil {
		return "", fmt.Errorf("run %s: %w", bin, err)
	}

	card := strings.TrimSpace(stdout.String())
	if card == "" {
		return "", ErrNoDisplay
	}
	return card, nil
}
