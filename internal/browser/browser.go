// Package browser opens spectator links with the desktop's URL handler.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Commander starts an external program
type Commander interface {
	Start(name string, args ...string) error
}

// ExecCommander starts programs with os/exec
type ExecCommander struct{}

func (ExecCommander) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

var defaultCommander Commander = ExecCommander{}

// Open hands an absolute http(s) link, usually a round's spectator clock,
// to the default browser of the machine running the server
func Open(link string) error {
	return OpenWith(link, defaultCommander, runtime.GOOS)
}

// OpenWith is Open with an explicit commander and platform
func OpenWith(link string, commander Commander, goos string) error {
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid link %q: %w", link, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("not an absolute http link: %q", link)
	}

	name, args, err := launcher(goos)
	if err != nil {
		return err
	}
	return commander.Start(name, append(args, u.String())...)
}

func launcher(goos string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", nil, nil
	case "darwin":
		return "open", nil, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}, nil
	}
	return "", nil, fmt.Errorf("unsupported platform: %s", goos)
}
