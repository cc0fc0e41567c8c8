package transporters

import (
	"encoding/json"
	"io"
	"os"

	"leaderdesk/pkg/log"
)

// Stdout writes line-delimited JSON entries to stdout, or to any
// writer supplied for tests.
type Stdout struct {
	writer io.Writer
}

// NewStdout writes to os.Stdout.
func NewStdout() *Stdout {
	return &Stdout{writer: os.Stdout}
}

// NewStdoutWithWriter writes to w.
func NewStdoutWithWriter(w io.Writer) *Stdout {
	return &Stdout{writer: w}
}

func (s *Stdout) Name() string {
	return "stdout"
}

func (s *Stdout) Write(entry log.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = s.writer.Write(data)
	return err
}

func (s *Stdout) Close() error {
	return nil
}
