package badge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/tagback/pkg/access"
	"github.com/robotalks/tagback/pkg/cli/sh"
	"github.com/robotalks/tagback/pkg/tag"
)

// ScanOutput is the result of scan.
type ScanOutput struct {
	*tag.Scan
}

func (o ScanOutput) String() string {
	return access.MsgDetected + o.UID.Spaced()
}

// CheckOutput is the result of check.
type CheckOutput struct {
	UID     tag.UID `json:"uid"`
	Granted bool    `json:"granted"`
}

func (o CheckOutput) String() string {
	if o.Granted {
		return access.MsgGranted
	}
	return access.MsgDenied
}

// FormatOutput is the result of hex.
type FormatOutput struct {
	Hex    string `json:"hex"`
	Spaced string `json:"spaced"`
	Len    int    `json:"len"`
}

func (o FormatOutput) String() string {
	return fmt.Sprintf("%s\n%s\n%d bytes", o.Hex, strings.TrimPrefix(o.Spaced, " "), o.Len)
}

// Format describes uid in all its forms.
func Format(uid tag.UID) FormatOutput {
	return FormatOutput{Hex: uid.String(), Spaced: uid.Spaced(), Len: len(uid)}
}

// uidArg parses the UID from all args so "DE AD BE EF" works unquoted.
func uidArg(c *ishell.Context) (tag.UID, bool) {
	if len(c.Args) == 0 {
		c.Err(fmt.Errorf("UID required"))
		return nil, false
	}
	uid, err := tag.ParseUID(strings.Join(c.Args, " "))
	if err != nil {
		c.Err(err)
		return nil, false
	}
	return uid, true
}

var (
	// ScanCmd waits for one card.
	ScanCmd = ishell.Cmd{
		Name:    "scan",
		Aliases: []string{"s"},
		Help:    "[TIMEOUT] wait for a card",
		Func: sh.MustHaveReader(func(c *ishell.Context) {
			timeout := sh.DefaultScanTimeout
			if len(c.Args) > 0 {
				d, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("invalid TIMEOUT: %v", err))
					return
				}
				timeout = d
			}
			scan, err := sh.ShellFrom(c).Scan(timeout)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Output(c, ScanOutput{Scan: scan})
		}),
	}

	// CheckCmd checks a UID against the authorized one.
	CheckCmd = ishell.Cmd{
		Name:    "check",
		Aliases: []string{"c"},
		Help:    "UID check against the authorized UID",
		Func: func(c *ishell.Context) {
			uid, ok := uidArg(c)
			if !ok {
				return
			}
			sh.Output(c, CheckOutput{UID: uid, Granted: sh.ShellFrom(c).Checker.Check(uid)})
		},
	}

	// AuthorizeCmd replaces the authorized UID for this session.
	AuthorizeCmd = ishell.Cmd{
		Name: "authorize",
		Help: "UID set the authorized UID",
		Func: func(c *ishell.Context) {
			uid, ok := uidArg(c)
			if !ok {
				return
			}
			sh.ShellFrom(c).Checker.Authorized = uid
		},
	}

	// SendCmd forwards a UID, or a freshly scanned one, to the uplink.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"log"},
		Help:    "[UID] forward to the logging server, scan a card if UID is omitted",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			var uid tag.UID
			if len(c.Args) > 0 {
				var ok bool
				if uid, ok = uidArg(c); !ok {
					return
				}
			} else {
				scan, err := s.Scan(sh.DefaultScanTimeout)
				if err != nil {
					c.Err(err)
					return
				}
				uid = scan.UID
			}
			if err := s.Send(context.Background(), uid); err != nil {
				c.Err(err)
				return
			}
			c.Println("sent " + uid.String())
		},
	}

	// HexCmd normalizes a UID.
	HexCmd = ishell.Cmd{
		Name: "hex",
		Help: "UID print the UID in all formats",
		Func: func(c *ishell.Context) {
			if uid, ok := uidArg(c); ok {
				sh.Output(c, Format(uid))
			}
		},
	}
)

func init() {
	sh.AddCmds(
		&ScanCmd,
		&CheckCmd,
		&AuthorizeCmd,
		&SendCmd,
		&HexCmd,
	)
}
