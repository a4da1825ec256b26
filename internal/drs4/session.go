package drs4

import (
	"context"
	"errors"
	"fmt"

	"github.com/obslab/drs4cal/internal/dsbs"
)

var (
	ErrRemoteExec = errors.New("drs4: remote command failed")
	ErrConfig     = errors.New("drs4: invalid configuration")
)

// Session issues correlator commands on the remote host. Trigger runs an
// integration; Fetch reads back the result tables it produced. Each call is
// independent: nothing is cached between them.
type Session struct {
	cfg Config
	sh  shell
}

// NewSession validates the configuration, fills in the standard remote
// layout for anything unset, and returns a session backed by SSH.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return &Session{cfg: cfg, sh: &sshShell{cfg: cfg}}, nil
}

// Trigger starts an integration on the given correlator input. The
// integration time is re-validated here even though callers check it too:
// this is the last stop before a remote command that assumes the value is in
// the firmware's domain. The settle/readout chain runs as one remote
// invocation and fails as a whole.
func (s *Session) Trigger(ctx context.Context, inputNum, integTime int) error {
	if inputNum != 1 && inputNum != 2 {
		return fmt.Errorf("%w: input number %d outside {1,2}", ErrConfig, inputNum)
	}
	if !dsbs.ValidIntegTime(integTime) {
		return fmt.Errorf("%w: integration time %d ms outside %v", ErrConfig, integTime, dsbs.ValidIntegTimes)
	}

	cmd := fmt.Sprintf("cd %s; %s --In %d --It %d; %s --In %d",
		s.cfg.CmdDir,
		s.cfg.SetIntegTimeCmd, inputNum, integTime/100,
		s.cfg.GetCorrResultCmd, inputNum,
	)
	_, err := s.run(ctx, cmd)
	return err
}

// Fetch reads the power and phase tables the last integration wrote on the
// remote host and returns their raw CSV text.
func (s *Session) Fetch(ctx context.Context) (power, phase string, err error) {
	power, err = s.run(ctx, "cat "+s.cfg.PowerPath)
	if err != nil {
		return "", "", err
	}
	phase, err = s.run(ctx, "cat "+s.cfg.PhasePath)
	if err != nil {
		return "", "", err
	}
	return power, phase, nil
}

func (s *Session) run(ctx context.Context, cmd string) (string, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	out, err := s.sh.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrRemoteExec, cmd, err)
	}
	return out, nil
}
