package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/tagback/pkg/access"
	"github.com/robotalks/tagback/pkg/reader"
	"github.com/robotalks/tagback/pkg/tag"
	"github.com/robotalks/tagback/pkg/uplink"
)

// Shell provides ishell backed interactive shell to exercise a board
// by hand.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell        *ishell.Shell
	ReaderConfig *reader.Config
	Reader       reader.Reader
	Checker      access.Checker
	Forwarder    *uplink.Forwarder
}

const (
	shellKey     = "$shell"
	closedPrompt = "[no reader] > "
)

// DefaultScanTimeout is how long scan waits for a card.
const DefaultScanTimeout = 5 * time.Second

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(readerConf *reader.Config, authorized tag.UID, fwd *uplink.Forwarder) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:        ishell.New(),
		ReaderConfig: readerConf,
		Checker:      access.Checker{Authorized: authorized},
		Forwarder:    fwd,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustHaveReader wraps command func requiring an opened reader. The
// reader is opened on first use.
func MustHaveReader(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if err := ShellFrom(c).Open(); err != nil {
			c.Err(err)
			return
		}
		fn(c)
	}
}

// Output prints v as JSON or with its String form.
func Output(c *ishell.Context, v fmt.Stringer) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(v.String())
}

// Open opens the configured reader unless already opened.
func (s *Shell) Open() error {
	if s.Reader != nil {
		return nil
	}
	r, err := s.ReaderConfig.Open()
	if err != nil {
		return err
	}
	s.Reader = r
	s.setPrompt(fmt.Sprintf("%s > ", r))
	return nil
}

// Close closes the reader.
func (s *Shell) Close() error {
	if s.Reader == nil {
		return nil
	}
	err := s.Reader.Close()
	s.Reader = nil
	s.setPrompt(closedPrompt)
	return err
}

func (s *Shell) setPrompt(prompt string) {
	if s.Shell != nil {
		s.Shell.SetPrompt(prompt)
	}
}

// Scan waits up to timeout for one card. Failed reads are retried
// until the timeout as the loop would do.
func (s *Shell) Scan(timeout time.Duration) (*tag.Scan, error) {
	if err := s.Open(); err != nil {
		return nil, err
	}
	deadline := time.Now().Add(timeout)
	for {
		poll := s.ReaderConfig.Timeout
		if remains := time.Until(deadline); remains < poll {
			poll = remains
		}
		if poll <= 0 {
			poll = time.Millisecond
		}
		uid, err := s.Reader.ReadUID(poll)
		if err == nil {
			s.Reader.Halt()
			return &tag.Scan{UID: uid, Reader: s.ReaderConfig.Name, Time: time.Now()}, nil
		}
		if !errors.Is(err, reader.ErrNoCard) || !time.Now().Before(deadline) {
			return nil, err
		}
	}
}

// Send forwards uid to the uplink.
func (s *Shell) Send(ctx context.Context, uid tag.UID) error {
	if s.Forwarder == nil {
		return fmt.Errorf("uplink not configured")
	}
	return s.Forwarder.Send(ctx, uid)
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// OpenCmd opens the reader.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "open the reader",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Open(); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the reader.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "close the reader",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Close(); err != nil {
				c.Err(err)
			}
		},
	}
)

// Main is a helper to provide a single call in main. The reader,
// access and uplink flags must be set up by the caller.
func Main() {
	flag.Parse()
	var authorized tag.UID
	if uidStr := access.Default().Authorized; uidStr != "" {
		uid, err := tag.ParseUID(uidStr)
		if err != nil {
			log.Fatalln(err)
		}
		authorized = uid
	}
	New(reader.Default(), authorized, uplink.Default().NewForwarder()).Run(flag.Args()...)
}
