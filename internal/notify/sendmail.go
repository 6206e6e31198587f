package notify

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Sendmail pipes the message to a local MTA ("sendmail -t -oi"), which
// takes the recipients from the headers.
type Sendmail struct {
	Path string
}

func (s *Sendmail) Deliver(ctx context.Context, msg Message) error {
	cmd := exec.CommandContext(ctx, s.Path, "-t", "-oi")
	cmd.Stdin = bytes.NewReader(msg.Bytes())
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if e := strings.TrimSpace(stderr.String()); e != "" {
			return fmt.Errorf("sendmail: %w: %s", err, e)
		}
		return fmt.Errorf("sendmail: %w", err)
	}
	return nil
}
